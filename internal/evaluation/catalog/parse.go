package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"roundwise/internal/evaluation/models"
	id "roundwise/pkg/domain"
	dErrors "roundwise/pkg/domain-errors"
)

// ErrDegraded marks a parse failure that was recovered by substituting an
// empty value. Callers log it and carry on.
var ErrDegraded = errors.New("catalog payload degraded")

func parseError(what string, err error) error {
	return dErrors.Wrap(err, dErrors.CodeCatalogParse, "malformed "+what)
}

// flexInt accepts 12, 12.0 and "12".
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
		if len(b) == 0 {
			*f = 0
			return nil
		}
	}
	if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		*f = flexInt(n)
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil || v != float64(int64(v)) {
		return fmt.Errorf("not an integer: %s", b)
	}
	*f = flexInt(v)
	return nil
}

// flexBool accepts true, "true", 1 and "1".
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		*f = true
	case "false", "0", "no", "", "null":
		*f = false
	default:
		return fmt.Errorf("not a boolean: %s", b)
	}
	return nil
}

// unwrapData returns the value under "data" when the payload is an envelope,
// otherwise the payload itself.
func unwrapData(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 {
		return bytes.TrimSpace(env.Data)
	}
	return trimmed
}

// Catalog payloads come from more than one producer, so both snake_case and
// camelCase spellings are read.
type rawItem struct {
	ID              flexInt  `json:"id"`
	CategoryID      flexInt  `json:"category_id"`
	CategoryIDCamel flexInt  `json:"categoryId"`
	Title           string   `json:"title"`
	Code            string   `json:"code"`
	Weight          *float64 `json:"weight"`
	IsRequired      flexBool `json:"is_required"`
	IsRequiredCamel flexBool `json:"isRequired"`
	RiskLevel       string   `json:"risk_level"`
	RiskLevelCamel  string   `json:"riskLevel"`
}

func (r rawItem) toModel() models.EvaluationItem {
	categoryID := r.CategoryID
	if categoryID == 0 {
		categoryID = r.CategoryIDCamel
	}
	risk := r.RiskLevel
	if risk == "" {
		risk = r.RiskLevelCamel
	}
	weight := 1.0
	if r.Weight != nil {
		weight = *r.Weight
	}
	return models.EvaluationItem{
		ID:         id.ItemID(r.ID),
		CategoryID: id.CategoryID(categoryID),
		Title:      strings.TrimSpace(r.Title),
		Code:       strings.TrimSpace(r.Code),
		Weight:     weight,
		IsRequired: bool(r.IsRequired || r.IsRequiredCamel),
		RiskLevel:  models.NormalizeRiskLevel(risk),
	}
}

// ParseItems reads the item catalog from `[...]` or `{"data": [...]}`.
// Entries without a positive id are dropped.
func ParseItems(raw []byte) ([]models.EvaluationItem, error) {
	var rows []rawItem
	if err := json.Unmarshal(unwrapData(raw), &rows); err != nil {
		return nil, parseError("evaluation items", err)
	}
	items := make([]models.EvaluationItem, 0, len(rows))
	for _, r := range rows {
		if r.ID <= 0 {
			continue
		}
		items = append(items, r.toModel())
	}
	return items, nil
}

type rawCategory struct {
	ID             flexInt `json:"id"`
	Name           string  `json:"name"`
	SortOrder      flexInt `json:"sort_order"`
	SortOrderCamel flexInt `json:"sortOrder"`
}

// ParseCategories reads categories from `[...]` or `{"data": [...]}`.
func ParseCategories(raw []byte) ([]models.Category, error) {
	var rows []rawCategory
	if err := json.Unmarshal(unwrapData(raw), &rows); err != nil {
		return nil, parseError("categories", err)
	}
	categories := make([]models.Category, 0, len(rows))
	for _, r := range rows {
		if r.ID <= 0 {
			continue
		}
		sortOrder := r.SortOrder
		if sortOrder == 0 {
			sortOrder = r.SortOrderCamel
		}
		categories = append(categories, models.Category{
			ID:        id.CategoryID(r.ID),
			Name:      strings.TrimSpace(r.Name),
			SortOrder: int(sortOrder),
		})
	}
	return categories, nil
}

// ParseItemIDs reads a round's item list. It accepts a native list, a string
// holding a JSON list, and ids given as strings. On failure it returns an
// empty list together with a CodeCatalogParse error wrapping ErrDegraded.
func ParseItemIDs(raw json.RawMessage) ([]id.ItemID, error) {
	ids, err := parseItemIDs(bytes.TrimSpace(raw), true)
	if err != nil {
		return []id.ItemID{}, parseError("evaluation item ids", errors.Join(ErrDegraded, err))
	}
	return ids, nil
}

func parseItemIDs(raw []byte, allowString bool) ([]id.ItemID, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []id.ItemID{}, nil
	}
	if raw[0] == '"' {
		if !allowString {
			return nil, errors.New("nested string encoding")
		}
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		return parseItemIDs(bytes.TrimSpace([]byte(inner)), false)
	}
	var list []flexInt
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	ids := make([]id.ItemID, 0, len(list))
	for _, v := range list {
		if v <= 0 {
			return nil, fmt.Errorf("invalid item id %d", v)
		}
		ids = append(ids, id.ItemID(v))
	}
	return ids, nil
}

type rawRound struct {
	ID                     flexInt         `json:"id"`
	Department             json.RawMessage `json:"department"`
	DepartmentName         string          `json:"department_name"`
	EvaluationItemIDs      json.RawMessage `json:"evaluation_item_ids"`
	EvaluationItemIDsCamel json.RawMessage `json:"evaluationItemIds"`
	Status                 string          `json:"status"`
}

// department may be a plain name or an object carrying one.
func (r rawRound) department() string {
	raw := bytes.TrimSpace(r.Department)
	if len(raw) > 0 {
		var name string
		if err := json.Unmarshal(raw, &name); err == nil {
			return name
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil && obj.Name != "" {
			return obj.Name
		}
	}
	return r.DepartmentName
}

// ParseRoundMeta reads round metadata from `{...}` or `{"data": {...}}`.
// A malformed item list does not fail the round: the returned meta carries an
// empty list and the error wraps ErrDegraded.
func ParseRoundMeta(raw []byte) (models.RoundMeta, error) {
	var r rawRound
	if err := json.Unmarshal(unwrapData(raw), &r); err != nil {
		return models.RoundMeta{}, parseError("round", err)
	}
	if r.ID <= 0 {
		return models.RoundMeta{}, dErrors.New(dErrors.CodeCatalogParse, "round payload has no id")
	}

	status := models.RoundStatus(strings.ToLower(strings.TrimSpace(r.Status)))
	if status == "" {
		status = models.RoundStatusDraft
	}
	meta := models.RoundMeta{
		ID:         id.RoundID(r.ID),
		Department: r.department(),
		Status:     status,
	}

	rawIDs := r.EvaluationItemIDs
	if len(rawIDs) == 0 {
		rawIDs = r.EvaluationItemIDsCamel
	}
	ids, err := ParseItemIDs(rawIDs)
	meta.EvaluationItemIDs = ids
	return meta, err
}
