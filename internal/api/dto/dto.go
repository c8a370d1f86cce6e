package dto

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var Validate = validator.New()

// CallbackRequest is posted by the front end after the carrier redirects
// back with an authorization code.
type CallbackRequest struct {
	Code         string `json:"code" validate:"required"`
	CodeVerifier string `json:"code_verifier" validate:"required"`
	RedirectURI  string `json:"redirect_uri" validate:"required"`
}

// Address fields must be present; empty strings pass through to the carrier.
type Address struct {
	PostalCode  *string `json:"postalCode" validate:"required"`
	CountryCode *string `json:"countryCode" validate:"required"`
}

type Dimensions struct {
	Height *float64 `json:"height" validate:"required"`
	Width  *float64 `json:"width" validate:"required"`
	Length *float64 `json:"length" validate:"required"`
}

type Weight struct {
	Value *float64 `json:"value" validate:"required"`
}

type Package struct {
	Dimensions *Dimensions `json:"dimensions" validate:"required"`
	Weight     *Weight     `json:"weight" validate:"required"`
}

// RateRequest is the body of a rate-shopping call.
type RateRequest struct {
	Origin      *Address  `json:"origin" validate:"required"`
	Destination *Address  `json:"destination" validate:"required"`
	Packages    []Package `json:"packages" validate:"required,min=1,dive"`
}

// FieldErrors flattens validator errors into field path -> failed rule.
// Paths use the JSON names, e.g. "packages[0].weight.value".
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[jsonPath(fe.Namespace())] = fe.Tag()
	}
	return out
}

func init() {
	Validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// jsonPath drops the root struct name from a validator namespace.
func jsonPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
