package execution

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mafiacoder/backend/internal/domain"
)

func TestExecuteWireFormat(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"language": "python",
			"version":  "3.10.0",
			"run":      map[string]interface{}{"stdout": "0 1\n", "stderr": "", "code": 0},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())
	result, err := client.Execute(context.Background(), "python", "print('0 1')", "4\n2 7 11 15\n9")
	require.NoError(t, err)

	assert.Equal(t, "python", captured["language"])
	assert.Equal(t, "3.10.0", captured["version"])
	assert.Equal(t, "4\n2 7 11 15\n9", captured["stdin"])
	files, ok := captured["files"].([]interface{})
	require.True(t, ok)
	require.Len(t, files, 1)
	assert.Equal(t, "print('0 1')", files[0].(map[string]interface{})["content"])

	assert.Equal(t, "0 1\n", result.Run.Stdout)
	assert.Zero(t, result.Run.Code)
	assert.Nil(t, result.Compile)
}

func TestExecuteCppUsesPistonName(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"language": "c++",
			"version":  "10.2.0",
			"compile":  map[string]interface{}{"stdout": "", "stderr": "", "code": 0},
			"run":      map[string]interface{}{"stdout": "ok", "stderr": "", "code": 0},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())

	// The "c++" alias resolves to cpp, which ships as "c++" on the wire
	result, err := client.Execute(context.Background(), "c++", "int main(){}", "")
	require.NoError(t, err)

	assert.Equal(t, "c++", captured["language"])
	assert.Equal(t, "10.2.0", captured["version"])
	require.NotNil(t, result.Compile)
	assert.Zero(t, result.Compile.Code)
}

func TestExecuteJsAlias(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{"run": map[string]interface{}{"stdout": ""}})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())
	_, err := client.Execute(context.Background(), "js", "console.log(1)", "")
	require.NoError(t, err)

	assert.Equal(t, "javascript", captured["language"])
	assert.Equal(t, "18.15.0", captured["version"])
}

func TestExecuteUnsupportedLanguageSkipsNetwork(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())
	_, err := client.Execute(context.Background(), "cobol", "DISPLAY 'HI'", "")

	assert.ErrorIs(t, err, domain.ErrUnsupportedLanguage)
	assert.False(t, called)
}

func TestExecuteNon200IsExecutionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())
	_, err := client.Execute(context.Background(), "python", "print(1)", "")

	assert.ErrorIs(t, err, domain.ErrExecutionFailed)
}

func TestExecutePreservesContextDeadline(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Execute(ctx, "python", "while True: pass", "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNormalize(t *testing.T) {
	for alias, want := range map[string]string{
		"python":     "python",
		"js":         "javascript",
		"javascript": "javascript",
		"c++":        "cpp",
		"cpp":        "cpp",
		"java":       "java",
	} {
		got, err := Normalize(alias)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := Normalize("haskell")
	assert.ErrorIs(t, err, domain.ErrUnsupportedLanguage)
}

func TestSupportedLanguagesSorted(t *testing.T) {
	langs := SupportedLanguages()
	assert.Equal(t, []string{"c", "cpp", "java", "javascript", "python", "typescript"}, langs)
}
