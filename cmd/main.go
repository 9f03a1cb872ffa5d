package main

import (
	"github.com/gin-gonic/gin"

	"github.com/haraherri/LMS-System/internal/app"
	"github.com/haraherri/LMS-System/internal/config"
)

func main() {
	gin.SetMode(gin.ReleaseMode)
	cfg := config.MustLoad()
	app.Run(cfg)
}
