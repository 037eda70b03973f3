package training

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/BerylCAtieno/watch-recommender/internal/features"
	"github.com/BerylCAtieno/watch-recommender/internal/models"
)

// TargetColumn is the purchase-history column holding the bought brand.
const TargetColumn = "Purchased Brand"

var ErrNoRows = errors.New("training: no usable purchase rows")

// LoadPurchases reads the purchase history sheet. An empty sheet name selects
// the first sheet. Rows missing any feature or the target are skipped.
func LoadPurchases(path, sheet string) ([]models.Purchase, int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open purchases %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return PurchasesFromRows(rows)
}

// PurchasesFromRows parses a header row plus data rows. It returns the parsed
// purchases and the number of skipped rows.
func PurchasesFromRows(rows [][]string) ([]models.Purchase, int, error) {
	if len(rows) == 0 {
		return nil, 0, ErrNoRows
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.TrimSpace(h)] = i
	}
	required := append(append([]string(nil), models.FeatureFields...), TargetColumn)
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, 0, fmt.Errorf("training: purchases sheet is missing column %q", col)
		}
	}

	var purchases []models.Purchase
	skipped := 0
	for _, row := range rows[1:] {
		values := make(map[string]string, len(required))
		ok := true
		for _, col := range required {
			i := index[col]
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				ok = false
				break
			}
			values[col] = row[i]
		}
		if !ok {
			skipped++
			continue
		}
		purchases = append(purchases, models.Purchase{
			Preferences: models.PreferencesFromMap(values).Normalize(),
			Brand:       strings.TrimSpace(values[TargetColumn]),
		})
	}

	if len(purchases) == 0 {
		return nil, skipped, ErrNoRows
	}
	return purchases, skipped, nil
}

// Encoded is the numeric training set.
type Encoded struct {
	Columns []string
	Labels  *features.LabelEncoder
	X       [][]float64
	Y       []int
}

// Encode one-hot encodes the preferences with drop-first and label-encodes
// the brands.
func Encode(purchases []models.Purchase) (*Encoded, error) {
	if len(purchases) == 0 {
		return nil, ErrNoRows
	}

	rows := make([][]string, len(purchases))
	brands := make([]string, len(purchases))
	for i, p := range purchases {
		rows[i] = p.Preferences.Normalize().Values()
		brands[i] = p.Brand
	}

	columns := features.FitColumns(models.FeatureFields, rows, true)
	if len(columns) == 0 {
		return nil, fmt.Errorf("training: every feature has a single category, nothing to learn")
	}
	enc := features.NewOneHot(columns)
	labels := features.FitLabels(brands)

	y, err := labels.TransformAll(brands)
	if err != nil {
		return nil, err
	}

	return &Encoded{
		Columns: columns,
		Labels:  labels,
		X:       enc.TransformAll(models.FeatureFields, rows),
		Y:       y,
	}, nil
}
