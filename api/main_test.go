package api

import (
	"os"
	"testing"

	"github.com/banachtech/option-pricer/config"
	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(apiKeyHash string) *Server {
	cfg := config.Default()
	cfg.Server.APIKeyHash = apiKeyHash
	cfg.Engine.Paths = 2000
	cfg.Engine.Depth = 100
	cfg.Engine.Seed = 1
	return NewServer(cfg)
}
