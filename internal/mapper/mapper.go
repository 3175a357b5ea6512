package mapper

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"vivaa/goldbook/internal/dateutils"
	"vivaa/goldbook/internal/logging"
	"vivaa/goldbook/internal/models"
	"vivaa/goldbook/internal/pipelineerror"
	"vivaa/goldbook/internal/store"
)

// RowSource is the lazy row sequence a mapper consumes. Both source readers
// satisfy it.
type RowSource interface {
	Next() (*models.RawRow, error)
	Close() error
}

// Mapper translates raw rows into canonical transactions. It is stateless
// after construction and safe to share across concurrent source reads.
type Mapper struct {
	dict       Dictionary
	categories *store.CategoryStore
	logger     logging.Logger
}

// Result is the outcome of mapping one source to completion.
type Result struct {
	Transactions []models.Transaction
	Rejections   []models.Rejection
	RowsRead     int
}

// New creates a mapper. The category store may be nil when no cashbook
// classification is configured.
func New(dict Dictionary, categories *store.CategoryStore, logger logging.Logger) *Mapper {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Mapper{dict: dict, categories: categories, logger: logger}
}

// MapAll drains a row source, mapping every row. Per-row failures become
// rejection entries; the sequence keeps going.
func (m *Mapper) MapAll(src RowSource) (Result, error) {
	var res Result
	defer func() {
		if err := src.Close(); err != nil {
			m.logger.WithError(err).Warn("Failed to close row source")
		}
	}()

	for {
		row, err := src.Next()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return res, err
		}
		res.RowsRead++

		tx, rejections := m.Map(row)
		res.Rejections = append(res.Rejections, rejections...)
		if tx != nil {
			res.Transactions = append(res.Transactions, *tx)
		}
	}
}

// Map translates one raw row. A nil transaction means the row was rejected
// and the slice holds the rejection naming the failing field; a non-nil
// transaction may still carry warning entries (unknown purity readings).
func (m *Mapper) Map(row *models.RawRow) (*models.Transaction, []models.Rejection) {
	dict, ok := m.dict.ForOrigin(row.Origin)
	if !ok {
		return nil, []models.Rejection{{
			RowRef: row.Ref(),
			Reason: models.ReasonUnmappedOrigin,
			Detail: fmt.Sprintf("no field dictionary for origin %s", row.Origin),
		}}
	}

	tx := models.Transaction{
		Origin:     row.Origin,
		SourceFile: row.SourceFile,
	}
	var categoryText, docNumber string
	unknownPurity := ""

	for rawName, rule := range dict.Fields {
		value, present := row.Fields[rawName]
		if !present || value == nil {
			continue
		}
		if s, isStr := value.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}

		switch rule.Canonical {
		case FieldDate:
			t, err := parseDateValue(value, rule.Convert)
			if err != nil {
				return nil, []models.Rejection{{
					RowRef: row.Ref(),
					Reason: models.ReasonMissingField,
					Detail: fmt.Sprintf("date: %v", err),
				}}
			}
			tx.Date = t

		case FieldGrossWeight, FieldNetWeight, FieldCostAmount, FieldRevenue:
			d, err := ParseNumber(rawName, value)
			if err != nil {
				return nil, []models.Rejection{{
					RowRef: row.Ref(),
					Reason: models.ReasonMalformedNumber,
					Detail: err.Error(),
				}}
			}
			// Zero amounts in the books mean "no entry on this side",
			// so they stay distinct from genuinely absent fields only
			// by being dropped here.
			if d == nil || d.IsZero() {
				continue
			}
			switch rule.Canonical {
			case FieldGrossWeight:
				tx.GrossWeight = d
			case FieldNetWeight:
				tx.NetWeight = d
			case FieldCostAmount:
				tx.CostAmount = d
			case FieldRevenue:
				tx.RevenueAmount = d
			}

		case FieldClientID:
			tx.ClientID = strings.TrimSpace(row.String(rawName))

		case FieldItemCategory:
			text := strings.TrimSpace(row.String(rawName))
			if rule.Convert == ConvertItemCode {
				tx.ItemCategory = categoryFromItemCode(text)
			} else {
				tx.ItemCategory = text
			}

		case FieldItemPurity:
			designation, ok := parsePurityValue(value, rule.Convert)
			if !ok {
				unknownPurity = row.String(rawName)
				continue
			}
			tx.ItemPurity = designation

		case FieldDocNumber:
			docNumber = strings.TrimSpace(row.String(rawName))

		case FieldCategoryText:
			categoryText = strings.TrimSpace(row.String(rawName))
		}
	}

	if tx.Date.IsZero() {
		return nil, []models.Rejection{rejectMissing(row, "date")}
	}
	if tx.CostAmount == nil && tx.RevenueAmount == nil {
		return nil, []models.Rejection{rejectMissing(row, "cost_amount/revenue_amount")}
	}
	if tx.HasWeight() && tx.NetWeight.GreaterThan(*tx.GrossWeight) {
		return nil, []models.Rejection{{
			RowRef: row.Ref(),
			Reason: models.ReasonInvariant,
			Detail: fmt.Sprintf("net_weight %s exceeds gross_weight %s",
				tx.NetWeight.String(), tx.GrossWeight.String()),
		}}
	}

	if docNumber != "" {
		tx.TransactionType = transactionTypeFromDoc(docNumber)
		if tx.TransactionType == models.TypeReturn {
			negateReturn(&tx)
		}
	}

	if categoryText != "" && m.categories != nil {
		m.classify(&tx, categoryText)
	}

	var warnings []models.Rejection
	if unknownPurity != "" {
		// The row is kept; it is only excluded from purity math.
		warnings = append(warnings, models.Rejection{
			RowRef: row.Ref(),
			Reason: models.ReasonUnknownPurity,
			Detail: fmt.Sprintf("unrecognized purity reading %q", unknownPurity),
		})
		m.logger.Debug("Unknown purity reading",
			logging.F("row", row.Ref()),
			logging.F("purity", unknownPurity))
	}

	key := row.Key
	if dict.KeyField != "" {
		if v, ok := row.Fields[dict.KeyField]; ok && v != nil {
			key = fmt.Sprint(v)
		}
	}
	tx.ID = models.DeriveID(row.Origin, key)

	return &tx, warnings
}

// classify attaches fixed-cost classification to cashbook expense rows.
func (m *Mapper) classify(tx *models.Transaction, categoryText string) {
	info, known := m.categories.Lookup(categoryText)
	if !known {
		m.logger.Debug("Uncategorized cashbook category",
			logging.F("category", categoryText))
	}
	if tx.CostAmount != nil && info.CostType == models.CostTypeFixed {
		tx.FixedCostCategory = info.Category
		tx.FixedCostSubcategory = info.Subcategory
	}
}

func parseDateValue(value any, convert string) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Truncate(24 * time.Hour), nil
	case float64:
		return dateutils.FromExcelSerial(v), nil
	case int64:
		return dateutils.FromExcelSerial(float64(v)), nil
	case string:
		s := strings.TrimSpace(v)
		if convert == ConvertExcelSerialDate {
			if serial, err := strconv.ParseFloat(s, 64); err == nil {
				return dateutils.FromExcelSerial(serial), nil
			}
		}
		return dateutils.ParseDate(s)
	default:
		return time.Time{}, fmt.Errorf("unsupported date value type %T", value)
	}
}

func parsePurityValue(value any, convert string) (string, bool) {
	if convert == ConvertFineness {
		switch v := value.(type) {
		case float64:
			return models.PurityFromFineness(v)
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return "", false
			}
			return models.PurityFromFineness(f)
		default:
			return "", false
		}
	}
	designation := strings.ToUpper(strings.TrimSpace(fmt.Sprint(value)))
	if _, ok := models.PurityFraction(designation); !ok {
		return "", false
	}
	return designation, true
}

// itemCodePattern extracts the category letters from codes like "22BRA001".
var itemCodePattern = regexp.MustCompile(`^\d{2}([A-Z]+)`)

// itemCodeCategories maps the legacy item-code letters to display names.
var itemCodeCategories = map[string]string{
	"BRA": "Bracelets",
	"CHA": "Chains",
	"BAN": "Bangles",
	"RIN": "Rings",
	"PEN": "Pendants",
}

func categoryFromItemCode(code string) string {
	m := itemCodePattern.FindStringSubmatch(strings.ToUpper(code))
	if m == nil {
		return ""
	}
	if name, ok := itemCodeCategories[m[1]]; ok {
		return name
	}
	return m[1]
}

// transactionTypeFromDoc classifies by the legacy document-number prefix.
func transactionTypeFromDoc(docNumber string) string {
	switch {
	case strings.HasPrefix(docNumber, "S"):
		return models.TypeSale
	case strings.HasPrefix(docNumber, "P"):
		return models.TypePurchase
	case strings.HasPrefix(docNumber, "R"):
		return models.TypeReturn
	case strings.HasPrefix(docNumber, "D"):
		return models.TypeDirectSale
	default:
		return ""
	}
}

// rejectMissing builds a missing-required-field rejection carrying the
// typed mapping error as its detail.
func rejectMissing(row *models.RawRow, field string) models.Rejection {
	err := &pipelineerror.MapRejectionError{RowRef: row.Ref(), MissingField: field}
	return models.Rejection{
		RowRef: row.Ref(),
		Reason: models.ReasonMissingField,
		Detail: err.Error(),
	}
}

// negateReturn flips a sales return into negative weights and revenue so
// aggregates subtract it, the way the legacy system books returns.
func negateReturn(tx *models.Transaction) {
	if tx.GrossWeight != nil {
		n := tx.GrossWeight.Neg()
		tx.GrossWeight = &n
	}
	if tx.NetWeight != nil {
		n := tx.NetWeight.Neg()
		tx.NetWeight = &n
	}
	if tx.RevenueAmount != nil {
		n := tx.RevenueAmount.Neg()
		tx.RevenueAmount = &n
	}
}
