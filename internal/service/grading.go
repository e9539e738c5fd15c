package service

import "survey_backend/internal/model"

// Grade is derived from an answer and never stored. Both fields are nil when
// correctness does not apply.
type Grade struct {
	IsCorrect     *bool   `json:"isCorrect"`
	CorrectAnswer *string `json:"correctAnswer"`
}

// GradeAnswer grades a single answer against its question. question.Choices
// must be in definition order: when several choices are flagged correct the
// first one is reported.
func GradeAnswer(answer *model.Answer, question *model.Question) Grade {
	var g Grade
	if question == nil || question.QuestionType != model.QuestionMCQ {
		return g
	}

	for i := range question.Choices {
		if question.Choices[i].IsCorrect {
			text := question.Choices[i].Text
			g.CorrectAnswer = &text
			break
		}
	}

	if answer == nil {
		return g
	}
	if choiceID, ok := answer.Value().ChoiceID(); ok {
		correct := false
		if c := question.FindChoice(choiceID); c != nil {
			correct = c.IsCorrect
		} else if answer.SelectedChoice != nil && answer.SelectedChoice.ID == choiceID {
			correct = answer.SelectedChoice.IsCorrect
		}
		g.IsCorrect = &correct
	}
	return g
}

// AnswerDisplay renders the stored answer as text: the selected choice, the
// free text, or "" for an orphaned answer.
func AnswerDisplay(answer *model.Answer, question *model.Question) string {
	v := answer.Value()
	if text, ok := v.Text(); ok {
		return text
	}
	if choiceID, ok := v.ChoiceID(); ok {
		if answer.SelectedChoice != nil && answer.SelectedChoice.ID == choiceID {
			return answer.SelectedChoice.Text
		}
		if question != nil {
			if c := question.FindChoice(choiceID); c != nil {
				return c.Text
			}
		}
	}
	return ""
}
