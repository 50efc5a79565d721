package silexplorer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/security/authenticate" {
			http.NotFound(w, r)
			return
		}
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds["identifier"] == "admin@opensilex.org" && creds["password"] == "admin" {
			fmt.Fprint(w, `{"result":{"token":"tok123"}}`)
			return
		}
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"result":{"message":"Invalid credentials"}}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/", srv.URL+"/graphql")
	require.NoError(t, err)

	err = c.Login(context.Background(), "admin@opensilex.org", "admin")
	require.NoError(t, err)
	assert.Equal(t, "tok123", c.Token())

	err = c.Login(context.Background(), "admin@opensilex.org", "wrong")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Error(), "Invalid credentials")
}

func TestLoginNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html>502 Bad Gateway</html>")
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, srv.URL+"/graphql")
	require.NoError(t, err)

	err = c.Login(context.Background(), "admin@opensilex.org", "admin")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusBadGateway, authErr.Status)
	assert.Contains(t, authErr.Message, "502 Bad Gateway")
}

func TestLoginRequiresCredentials(t *testing.T) {
	c, err := NewClient("http://example.invalid/rest", "http://example.invalid/graphql")
	require.NoError(t, err)
	err = c.Login(context.Background(), "", "")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestNewClientRequiresURLs(t *testing.T) {
	_, err := NewClient("", "http://example.invalid/graphql")
	require.Error(t, err)
	_, err = NewClient("http://example.invalid/rest", "")
	require.Error(t, err)
}

func TestGraphQL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Variables["fail"] == true {
			fmt.Fprint(w, `{"errors":[{"message":"bad filter"}]}`)
			return
		}
		fmt.Fprint(w, `{"data":{"Experiment":[{"_id":"uri:exp1","label":"ZA17"}]}}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, srv.URL, OptToken("tok"))
	require.NoError(t, err)

	var out struct {
		Experiment []struct {
			ID    string `json:"_id"`
			Label string `json:"label"`
		} `json:"Experiment"`
	}
	err = c.GraphQL(context.Background(), "query { Experiment { _id label } }", nil, &out)
	require.NoError(t, err)
	require.Len(t, out.Experiment, 1)
	assert.Equal(t, "uri:exp1", out.Experiment[0].ID)

	err = c.GraphQL(context.Background(), "query", map[string]interface{}{"fail": true}, &out)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Error(), "bad filter")
}

func TestGetPaged(t *testing.T) {
	pages := []string{
		`{"result":[{"uri":"u0"},{"uri":"u1"}],"metadata":{"pagination":{"hasNextPage":true}}}`,
		`{"result":[{"uri":"u2"}],"metadata":{"pagination":{"hasNextPage":false}}}`,
	}
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "exp:1", r.URL.Query().Get("experiments"))
		page := r.URL.Query().Get("page")
		switch page {
		case "0":
			fmt.Fprint(w, pages[0])
		case "1":
			fmt.Fprint(w, pages[1])
		default:
			t.Fatalf("unexpected page %s", page)
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, srv.URL, OptToken("tok"))
	require.NoError(t, err)

	err = c.GetPaged(context.Background(), "/core/variables", map[string][]string{"experiments": {"exp:1"}}, 2,
		func(result json.RawMessage) error {
			var rs []struct {
				URI string `json:"uri"`
			}
			if err := json.Unmarshal(result, &rs); err != nil {
				return err
			}
			for _, r := range rs {
				got = append(got, r.URI)
			}
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"u0", "u1", "u2"}, got)
}

func TestGetPagedNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html>502 Bad Gateway</html>")
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, srv.URL, OptToken("tok"))
	require.NoError(t, err)

	err = c.GetPaged(context.Background(), "/core/variables", nil, 20,
		func(result json.RawMessage) error { return nil })
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Contains(t, apiErr.Message, "502 Bad Gateway")
}

func TestGetPagedTotalPages(t *testing.T) {
	// some services report totalPages instead of hasNextPage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		fmt.Fprintf(w, `{"result":[{"uri":"p%s"}],"metadata":{"pagination":{"totalPages":3}}}`, page)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, srv.URL, OptToken("tok"))
	require.NoError(t, err)

	n := 0
	err = c.GetPaged(context.Background(), "/core/scientific_objects/used_types", nil, 20,
		func(result json.RawMessage) error {
			n++
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
