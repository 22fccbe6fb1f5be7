package trainer

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/db"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"github.com/nutritionbot/dashboard-backend/internal/utils"
	"gorm.io/gorm"
)

type createQuestionRequest struct {
	TrainerID    string `json:"trainer_id"`
	CategoryID   string `json:"category_id"`
	QuestionText string `json:"question_text"`
	StepOrder    int    `json:"step_order"`
}

func (r createQuestionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CategoryID, validation.Required, is.UUID),
		validation.Field(&r.QuestionText, validation.Required, validation.Length(1, 1000)),
		validation.Field(&r.StepOrder, validation.Min(0)),
	)
}

type updateQuestionRequest struct {
	QuestionText *string `json:"question_text"`
	StepOrder    *int    `json:"step_order"`
}

func (r updateQuestionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.QuestionText, validation.NilOrNotEmpty, validation.Length(1, 1000)),
		validation.Field(&r.StepOrder, validation.Min(0)),
	)
}

func questionNotFound() error {
	return identity.NewError(identity.ErrNotFound, "Question not found")
}

func (h *Handlers) ListQuestions(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	scope, err := readScope(caller, r, "trainer_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := []Question{}
	err = h.db.WithContext(r.Context()).
		Scopes(scope).
		Preload("Category").
		Order("step_order, created_at").
		Find(&out).Error
	if err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handlers) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req createQuestionRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	owner, err := identity.OwnerFor(caller, req.TrainerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	categoryID := uuid.MustParse(req.CategoryID)

	var category Category
	if err := h.db.WithContext(r.Context()).Where("id = ?", categoryID).Take(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(w, r, identity.NewError(identity.ErrInvalidInput, "Invalid category ID"))
			return
		}
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}

	q := Question{
		ID:           uuid.New(),
		TrainerID:    owner,
		CategoryID:   categoryID,
		QuestionText: req.QuestionText,
		StepOrder:    req.StepOrder,
	}
	if err := h.db.WithContext(r.Context()).Omit("Category").Create(&q).Error; err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}
	q.Category = &category
	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":  "Question created successfully",
		"question": q,
	})
}

// UpdateQuestion only touches rows inside the caller's scope; a question
// owned by another trainer is reported as missing.
func (h *Handlers) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "Question not found")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req updateQuestionRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	cols := map[string]any{}
	if req.QuestionText != nil {
		cols["question_text"] = *req.QuestionText
	}
	if req.StepOrder != nil {
		cols["step_order"] = *req.StepOrder
	}
	cols["updated_at"] = h.now().UTC()

	tx := h.db.WithContext(r.Context())
	res := tx.Model(&Question{}).
		Where("id = ?", id).
		Scopes(identity.OwnedBy(caller)).
		Updates(cols)
	if res.Error != nil {
		h.fail(w, r, db.TranslateError(res.Error, ""))
		return
	}
	if res.RowsAffected == 0 {
		h.fail(w, r, questionNotFound())
		return
	}

	var q Question
	if err := tx.Scopes(identity.OwnedBy(caller)).Preload("Category").Where("id = ?", id).Take(&q).Error; err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "Question updated successfully",
		"question": q,
	})
}

func (h *Handlers) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "Question not found")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res := h.db.WithContext(r.Context()).
		Where("id = ?", id).
		Scopes(identity.OwnedBy(caller)).
		Delete(&Question{})
	if res.Error != nil {
		h.fail(w, r, db.TranslateError(res.Error, ""))
		return
	}
	if res.RowsAffected == 0 {
		h.fail(w, r, questionNotFound())
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Question deleted successfully")
}
