package domain

import (
	"errors"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// Phone is the structured phone snapshot frozen into the order.
type Phone struct {
	Number         string `json:"number"`
	Country        string `json:"country"`
	NationalNumber uint64 `json:"national_number"`
	CallingCode    int32  `json:"calling_code"`
}

// ParsePhone validates and normalizes a raw number against an ISO 3166-1
// alpha-2 region (the region may be empty for E.164 input).
func ParsePhone(raw, region string) (Phone, error) {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return Phone{}, ErrInvalidPhone
	}

	if !phonenumbers.IsValidNumber(num) {
		return Phone{}, ErrInvalidPhone
	}

	return Phone{
		Number:         phonenumbers.Format(num, phonenumbers.E164),
		Country:        phonenumbers.GetRegionCodeForNumber(num),
		NationalNumber: num.GetNationalNumber(),
		CallingCode:    num.GetCountryCode(),
	}, nil
}
