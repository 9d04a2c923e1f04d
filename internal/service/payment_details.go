package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shinyyama/market-backend/internal/apperr"
	"github.com/shinyyama/market-backend/internal/model"
	"gorm.io/datatypes"
)

const invalidDetailsMessage = "Invalid payment details for the selected payment method"

// ValidatePaymentDetails checks raw against the allow-lists of method and
// returns the details re-encoded with only the known fields.
func ValidatePaymentDetails(method model.PaymentMethod, raw json.RawMessage, now time.Time) (datatypes.JSON, error) {
	var details interface{}
	switch method {
	case model.PaymentMethodBankTransfer:
		details = &model.BankTransferDetails{}
	case model.PaymentMethodEWallet:
		details = &model.EWalletDetails{}
	case model.PaymentMethodCard:
		details = &model.CardDetails{}
	case model.PaymentMethodQRIS:
		details = &model.QRISDetails{}
	default:
		return nil, apperr.BadRequest("invalid payment method: %s", method)
	}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, apperr.BadRequest("%s: paymentDetails is required", invalidDetailsMessage)
	}
	if err := json.Unmarshal(raw, details); err != nil {
		return nil, apperr.Wrap(http.StatusBadRequest, err, invalidDetailsMessage)
	}
	if err := validate.Struct(details); err != nil {
		return nil, apperr.Wrap(http.StatusBadRequest, err, fmt.Sprintf("%s: %s", invalidDetailsMessage, describe(err)))
	}
	if card, ok := details.(*model.CardDetails); ok && card.ExpiryYear < now.Year() {
		err := errors.New("card expired")
		return nil, apperr.Wrap(http.StatusBadRequest, err, fmt.Sprintf("%s: expiryYear must not be in the past", invalidDetailsMessage))
	}
	normalized, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(normalized), nil
}
