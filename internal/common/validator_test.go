package common

import (
	"testing"
)

func TestIsValidNumber(t *testing.T) {
	tests := []struct {
		value          string
		decimalAllowed bool
		expected       bool
	}{
		{"123", true, true},
		{"123", false, true},
		{"-123", false, true},
		{"100.50", true, true},
		{"0.5", true, true},
		{"123.45", false, false},
		{"", true, false},
		{"abc", true, false},
		{"12.34.56", true, false},
		{" 123", true, false},
	}

	for _, test := range tests {
		result := IsValidNumber(test.value, test.decimalAllowed)
		if result != test.expected {
			t.Errorf("IsValidNumber(%q, %v) = %v, expected %v", test.value, test.decimalAllowed, result, test.expected)
		}
	}
}

func TestValidateNumberRange(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		min      string
		max      string
		expected string
	}{
		{"within range", "50", "0", "100", ""},
		{"no constraints", "-5", "", "", ""},
		{"below min", "-1", "0", "", "Value must be at least 0"},
		{"above max", "101", "", "100", "Value must be at most 100"},
		{"not a number", "abc", "0", "100", "Please enter a valid number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateNumberRange(tt.value, tt.min, tt.max)
			if result != tt.expected {
				t.Errorf("ValidateNumberRange(%q, %q, %q) = %q, expected %q", tt.value, tt.min, tt.max, result, tt.expected)
			}
		})
	}
}

func TestIsValidBaseURL(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"http://127.0.0.1:8000", true},
		{"https://ledger.example.com/api", true},
		{"ftp://example.com", false},
		{"/api", false},
		{"", false},
		{"not a url", false},
	}

	for _, test := range tests {
		if result := IsValidBaseURL(test.input); result != test.expected {
			t.Errorf("IsValidBaseURL(%q) = %v, expected %v", test.input, result, test.expected)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	if !IsValidEmail("test@example.com") {
		t.Error("Expected test@example.com to be valid")
	}
	if IsValidEmail("not-an-email") {
		t.Error("Expected not-an-email to be invalid")
	}
}

func TestIsValidDate(t *testing.T) {
	if !IsValidDate("2025-06-01") {
		t.Error("Expected 2025-06-01 to be valid")
	}
	if IsValidDate("2025-13-01") {
		t.Error("Expected 2025-13-01 to be invalid")
	}
	if IsValidDate("01/06/2025") {
		t.Error("Expected 01/06/2025 to be invalid")
	}
}

func TestHostnameOf(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"http://127.0.0.1:8000", "127.0.0.1"},
		{"https://ledger.example.com/api", "ledger.example.com"},
		{"localhost:8000/api", "localhost_8000_api"},
	}

	for _, test := range tests {
		if result := HostnameOf(test.input); result != test.expected {
			t.Errorf("HostnameOf(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}
