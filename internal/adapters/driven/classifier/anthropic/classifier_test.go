package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cybercache/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		_, err := New(Config{})
		assert.Error(t, err)
	})

	t.Run("applies defaults", func(t *testing.T) {
		c, err := New(Config{APIKey: "sk-ant-test"})
		require.NoError(t, err)
		assert.Equal(t, DefaultBaseURL, c.baseURL)
		assert.Equal(t, DefaultModel, c.model)
	})
}

func TestClassifier_Classify(t *testing.T) {
	t.Run("parses successful response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/messages", r.URL.Path)
			assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
			assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

			resp := map[string]any{
				"content": []map[string]any{
					{"type": "text", "text": "CATEGORY: Threat Intelligence\nTAGS: osint, research\nCONFIDENCE: medium"},
				},
			}
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		}))
		defer srv.Close()

		c, err := New(Config{APIKey: "sk-ant-test", BaseURL: srv.URL})
		require.NoError(t, err)

		result, err := c.Classify(context.Background(), domain.ClassifyInput{Title: "OSINT Handbook"})
		require.NoError(t, err)

		assert.Equal(t, "Threat Intelligence", result.Category)
		assert.Equal(t, []string{"osint", "research"}, result.Tags)
		assert.Equal(t, domain.ClassifierAnthropic, result.Source)
	})

	t.Run("concatenates text blocks", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			resp := map[string]any{
				"content": []map[string]any{
					{"type": "text", "text": "CATEGORY: Blue Team\n"},
					{"type": "text", "text": "TAGS: siem\nCONFIDENCE: high"},
				},
			}
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		}))
		defer srv.Close()

		c, err := New(Config{APIKey: "sk-ant-test", BaseURL: srv.URL})
		require.NoError(t, err)

		result, err := c.Classify(context.Background(), domain.ClassifyInput{Title: "x"})
		require.NoError(t, err)
		assert.Equal(t, "Blue Team", result.Category)
	})

	t.Run("fails on api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
		}))
		defer srv.Close()

		c, err := New(Config{APIKey: "sk-ant-test", BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = c.Classify(context.Background(), domain.ClassifyInput{Title: "x"})
		assert.Error(t, err)
	})
}
