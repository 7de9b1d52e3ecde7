package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPAdmin_DeleteUser(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "deleted", status: http.StatusOK},
		{name: "no content", status: http.StatusNoContent},
		{name: "already gone", status: http.StatusNotFound},
		{name: "provider error", status: http.StatusInternalServerError, wantErr: true},
		{name: "bad key", status: http.StatusUnauthorized, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotAuth, gotMethod string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotAuth = r.Header.Get("Authorization")
				gotMethod = r.Method
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			admin := NewHTTPAdmin(srv.URL+"/auth/v1/", "service-key", srv.Client())
			err := admin.DeleteUser(context.Background(), id)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, http.MethodDelete, gotMethod)
			assert.Equal(t, "/auth/v1/admin/users/"+id.String(), gotPath)
			assert.Equal(t, "Bearer service-key", gotAuth)
		})
	}
}
