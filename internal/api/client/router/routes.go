// Package router đăng ký các route thuộc domain Client.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	clienthdl "lead_harvest/internal/api/client/handler"
)

// Register đăng ký tất cả route client lên v1.
func Register(v1 fiber.Router) error {
	clientHandler, err := clienthdl.NewClientHandler()
	if err != nil {
		return fmt.Errorf("create client handler: %w", err)
	}

	v1.Post("/client", clientHandler.HandleCreate)
	v1.Get("/client", clientHandler.HandleFindWithPagination)
	v1.Get("/client/:clientId", clientHandler.HandleFindOneByClientID)
	v1.Put("/client/:clientId", clientHandler.HandleUpdateByClientID)

	return nil
}
