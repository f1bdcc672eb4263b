package leads

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
		want  FieldErrors
	}{
		{
			name:  "valid with first name only",
			draft: Draft{FirstName: "John", Email: "john@co.com", Message: "hello"},
			want:  FieldErrors{},
		},
		{
			name:  "valid with last name only",
			draft: Draft{LastName: "Smith", Email: "smith@co.com", Message: "hello"},
			want:  FieldErrors{},
		},
		{
			name:  "whitespace name is missing",
			draft: Draft{FirstName: "  ", LastName: "\t", Email: "john@co.com", Message: "hello"},
			want:  FieldErrors{FieldName: MissingName},
		},
		{
			name:  "missing email",
			draft: Draft{FirstName: "John", Email: "   ", Message: "hello"},
			want:  FieldErrors{FieldEmail: MissingEmail},
		},
		{
			name:  "email without tld",
			draft: Draft{FirstName: "John", Email: "john@co", Message: "hello"},
			want:  FieldErrors{FieldEmail: InvalidEmailFormat},
		},
		{
			name:  "email with inner space",
			draft: Draft{FirstName: "John", Email: "jo hn@co.com", Message: "hello"},
			want:  FieldErrors{FieldEmail: InvalidEmailFormat},
		},
		{
			name:  "email padded with spaces is trimmed",
			draft: Draft{FirstName: "John", Email: " john@co.com ", Message: "hello"},
			want:  FieldErrors{},
		},
		{
			name:  "all rules fail together",
			draft: Draft{Email: "not-an-email"},
			want: FieldErrors{
				FieldName:    MissingName,
				FieldEmail:   InvalidEmailFormat,
				FieldMessage: MissingMessage,
			},
		},
		{
			name:  "honeypot does not affect validation",
			draft: Draft{FirstName: "John", Email: "john@co.com", Message: "hello", Honeypot: "x"},
			want:  FieldErrors{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.draft)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for field, code := range tt.want {
				if got[field] != code {
					t.Fatalf("field %s: expected %s, got %s", field, code, got[field])
				}
			}
		})
	}
}

func TestFieldErrorsMessages(t *testing.T) {
	msgs := FieldErrors{FieldEmail: InvalidEmailFormat}.Messages()
	if msgs[FieldEmail] != "Please enter a valid email address." {
		t.Fatalf("unexpected message %q", msgs[FieldEmail])
	}
}

func TestDraftFieldsNormalizes(t *testing.T) {
	f := Draft{
		FirstName:   " John ",
		Email:       " john@co.com",
		CompanyType: "contractor",
		Message:     " hello ",
	}.Fields()
	if f.FirstName != "John" || f.Email != "john@co.com" || f.Message != "hello" {
		t.Fatalf("expected trimmed fields, got %+v", f)
	}
	if f.CompanyType != CompanyTypeGeneralContractor {
		t.Fatalf("expected legacy alias mapped, got %q", f.CompanyType)
	}

	unknown := Draft{CompanyType: "wholesaler"}.Fields()
	if unknown.CompanyType != CompanyTypeUnset {
		t.Fatalf("expected unknown type dropped, got %q", unknown.CompanyType)
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		got, err := ParseStatus(" " + string(s) + " ")
		if err != nil || got != s {
			t.Fatalf("ParseStatus(%q) = %q, %v", s, got, err)
		}
	}
	if _, err := ParseStatus("done"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseCompanyType(t *testing.T) {
	cases := map[string]CompanyType{
		"":                     CompanyTypeUnset,
		"distributor":          CompanyTypeDistributor,
		"Specialty":            CompanyTypeSpecialtyContractor,
		"specialty-contractor": CompanyTypeSpecialtyContractor,
		"supplier":             CompanyTypeSupplier,
	}
	for raw, want := range cases {
		got, err := ParseCompanyType(raw)
		if err != nil || got != want {
			t.Fatalf("ParseCompanyType(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseCompanyType("retail"); err == nil {
		t.Fatal("expected error for unknown company type")
	}
}

func TestCheckHoneypot(t *testing.T) {
	tests := []struct {
		value string
		want  Classification
	}{
		{"", Clean},
		{"http://spam.example", Spam},
		{" ", Spam},
	}
	for _, tt := range tests {
		if got := CheckHoneypot(tt.value); got != tt.want {
			t.Fatalf("CheckHoneypot(%q) = %s, want %s", tt.value, got, tt.want)
		}
	}
}
