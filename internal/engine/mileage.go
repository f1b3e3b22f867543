package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/quillhq/expenseflow/internal/models"
	"github.com/quillhq/expenseflow/internal/store"
)

// SettingMileageRate is the settings key holding the reimbursement rate in
// dollars per mile, stored as a decimal string (e.g. "0.70").
const SettingMileageRate = "mileage_rate"

// DefaultMileageRate is used when no rate has been configured.
const DefaultMileageRate = 0.70

// CalculateMileageAmount computes distance * rate in cents, rounded half-up
// to two decimals. A zero distance yields a zero amount; that is a valid
// reimbursement, not an error.
func CalculateMileageAmount(distanceMiles, ratePerMile float64) int64 {
	return models.RoundHalfUpCents(distanceMiles * ratePerMile)
}

// MileageRate reads the configured rate from settings, falling back to
// DefaultMileageRate when unset.
func (e *Engine) MileageRate(ctx context.Context) (float64, error) {
	value, err := e.store.GetSetting(ctx, SettingMileageRate)
	if errors.Is(err, store.ErrNotFound) {
		return DefaultMileageRate, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read mileage rate: %w", err)
	}

	rate, err := strconv.ParseFloat(value, 64)
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("malformed mileage rate setting %q", value)
	}
	return rate, nil
}

// SetMileageRate stores a new rate. The rate must be positive.
func (e *Engine) SetMileageRate(ctx context.Context, rate float64) error {
	if rate <= 0 {
		return &ValidationError{Field: "mileage_rate", Reason: "must be positive"}
	}
	return e.store.SetSetting(ctx, SettingMileageRate, strconv.FormatFloat(rate, 'f', -1, 64))
}
