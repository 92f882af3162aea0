package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/paatshala-go-api/internal/service"
)

func parseIntParam(c *fiber.Ctx, name string) (int, error) {
	value := c.Params(name)
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, errors.New("invalid identifier")
	}
	return parsed, nil
}

// parseQueryInt reads an optional integer query value; absent means zero.
func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func requireQueryInt(c *fiber.Ctx, key string) (int, error) {
	parsed, err := parseQueryInt(c, key)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("%s query parameter required", key)
	}
	return parsed, nil
}

func mutationMessage(result service.MutationResult) string {
	if result.Applied {
		return "change applied"
	}
	return "change not applied"
}
