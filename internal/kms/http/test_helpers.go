package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/keyloft/keyloft/internal/authz"
	"github.com/keyloft/keyloft/internal/httputil"
)

// createTestContext creates a test Gin context with the given request.
func createTestContext(method, path string, body interface{}, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = params

	return c, w
}

// withActor sets the identity headers the fronting auth layer would forward.
func withActor(c *gin.Context, actor authz.Actor) {
	c.Request.Header.Set(httputil.HeaderActorID, actor.ID.String())
	c.Request.Header.Set(httputil.HeaderActorUsername, actor.Username)
}
