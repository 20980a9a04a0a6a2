package registration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRegistrationValidate(t *testing.T) {
	t.Parallel()

	sessionDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name    string
		reg     NewRegistration
		wantErr bool
	}{
		{
			name: "valid with all fields",
			reg: NewRegistration{
				Email:       "a@x.com",
				FirstName:   "Ada",
				LastName:    "Lovelace",
				Phone:       "+33612345678",
				SessionDate: sessionDate,
			},
		},
		{
			name: "valid with required fields only",
			reg: NewRegistration{
				Email:       "a@x.com",
				SessionDate: sessionDate,
			},
		},
		{
			name: "missing email",
			reg: NewRegistration{
				SessionDate: sessionDate,
			},
			wantErr: true,
		},
		{
			name: "blank email",
			reg: NewRegistration{
				Email:       "   ",
				SessionDate: sessionDate,
			},
			wantErr: true,
		},
		{
			name: "malformed email",
			reg: NewRegistration{
				Email:       "not-an-email",
				SessionDate: sessionDate,
			},
			wantErr: true,
		},
		{
			name: "missing session date",
			reg: NewRegistration{
				Email: "a@x.com",
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.reg.Validate()
			if tc.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, ErrValidation)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
