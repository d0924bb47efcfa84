// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package validation

import (
	"strings"
	"testing"
)

type pageParams struct {
	Limit  int `validate:"min=1,max=50000"`
	Offset int `validate:"min=0"`
}

type colorParams struct {
	Color string `validate:"required,hexcolor"`
}

func TestValidateStructPasses(t *testing.T) {
	if err := ValidateStruct(&pageParams{Limit: 100, Offset: 0}); err != nil {
		t.Errorf("expected valid struct, got %v", err)
	}
}

func TestValidateStructSingleError(t *testing.T) {
	err := ValidateStruct(&pageParams{Limit: 0, Offset: 0})
	if err == nil {
		t.Fatal("expected validation error for zero limit")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "at least 1") {
		t.Errorf("message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "Limit" {
		t.Errorf("details = %v", apiErr.Details)
	}
}

func TestValidateStructMultipleErrors(t *testing.T) {
	err := ValidateStruct(&pageParams{Limit: 0, Offset: -1})
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Errorf("multi-error details missing fields list: %v", apiErr.Details)
	}
}

func TestValidateStructHexColor(t *testing.T) {
	if err := ValidateStruct(&colorParams{Color: "#1A2B3C"}); err != nil {
		t.Errorf("valid hex color rejected: %v", err)
	}
	if err := ValidateStruct(&colorParams{Color: "red"}); err == nil {
		t.Error("invalid hex color accepted")
	}
}
