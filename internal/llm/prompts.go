package llm

import (
	"fmt"

	"github.com/mindgrove-ai/studykit/internal/domain"
)

func answerPrompt(question, contextText string) string {
	return fmt.Sprintf(`You are a helpful study assistant. Answer the student's question based ONLY on the provided context. If the answer is not found in the context, say "I cannot find the answer in the provided study materials."

Be clear, concise, and educational in your response. Use bullet points or numbered lists when appropriate to make the information easy to understand.

**CONTEXT:**
%s

**QUESTION:**
%s

**ANSWER:**`, contextText, question)
}

func studyPrompt(materialType domain.MaterialType, contextText, topic string) string {
	topicText := ""
	if topic != "" {
		topicText = fmt.Sprintf(" focusing on %s", topic)
	}

	switch materialType {
	case domain.MaterialSummary:
		return fmt.Sprintf(`Create a comprehensive summary of the following study material%s.

Make the summary:
- Well-organized with clear sections
- Easy to understand for students
- Include key concepts and important details
- Use bullet points and subheadings where appropriate

**STUDY MATERIAL:**
%s

**SUMMARY:**`, topicText, contextText)

	case domain.MaterialFlashcards:
		return fmt.Sprintf(`Create 8-10 flashcards from the following study material%s.

Format each flashcard as:
**Card [number]:**
**Front:** [Question or term]
**Back:** [Answer or definition]

Make the flashcards cover the most important concepts and ensure they are good for memorization and review.

**STUDY MATERIAL:**
%s

**FLASHCARDS:**`, topicText, contextText)

	case domain.MaterialQuiz:
		return fmt.Sprintf(`Create a 5-question multiple choice quiz from the following study material%s.

Format each question as:
**Question [number]:** [Question text]
A) [Option A]
B) [Option B]
C) [Option C]
D) [Option D]
**Correct Answer:** [Letter]
**Explanation:** [Brief explanation]

Make sure the questions test understanding of key concepts, not just memorization.

**STUDY MATERIAL:**
%s

**QUIZ:**`, topicText, contextText)

	default:
		return fmt.Sprintf(`Generate educational content of type "%s" from the following study material%s:

%s`, materialType, topicText, contextText)
	}
}
