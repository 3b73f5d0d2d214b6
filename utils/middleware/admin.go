package middleware

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/d-valsamis/student-portal/model"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// redactedFields never reach the audit log.
var redactedFields = []string{"password", "password_hash"}

// AdminAuditLog records mutating admin requests for a resource. It must run
// after RequireAdmin. The entry is written after the handler, off the request path.
func AdminAuditLog(db *gorm.DB, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead || c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		adminID, ok := GetUserID(c)
		if !ok || !IsAdmin(c) {
			return c.Next()
		}

		err := c.Next()

		// Copy everything out of the fiber context before it is recycled.
		entry := model.AdminAuditLog{
			AdminID:     adminID,
			Action:      actionFor(c.Method()),
			Resource:    resource,
			ResourceID:  resourceID(c),
			Payload:     auditPayload(c),
			Status:      c.Response().StatusCode(),
			IPAddress:   c.IP(),
			UserAgent:   strings.Clone(c.Get(fiber.HeaderUserAgent)),
			Description: c.Method() + " " + strings.Clone(c.Path()),
		}

		go func() {
			if err := db.Create(&entry).Error; err != nil {
				log.Warnf("failed to write admin audit log: %v", err)
			}
		}()

		return err
	}
}

func actionFor(method string) string {
	switch method {
	case fiber.MethodPost:
		return "create"
	case fiber.MethodPut, fiber.MethodPatch:
		return "update"
	case fiber.MethodDelete:
		return "delete"
	}
	return strings.ToLower(method)
}

// resourceID is the :id route parameter, or for creates the id of the new row.
func resourceID(c *fiber.Ctx) uint {
	if id, err := strconv.ParseUint(c.Params("id"), 10, 64); err == nil {
		return uint(id)
	}
	if c.Method() == fiber.MethodPost && c.Response().StatusCode() == fiber.StatusCreated {
		return createdID(c.Response().Body())
	}
	return 0
}

// createdID reads data.id (or data.studentId) from a success envelope.
func createdID(body []byte) uint {
	var envelope struct {
		Data struct {
			ID        uint `json:"id"`
			StudentID uint `json:"studentId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return 0
	}
	if envelope.Data.ID != 0 {
		return envelope.Data.ID
	}
	return envelope.Data.StudentID
}

// auditPayload keeps JSON bodies with secrets removed; multipart bodies are not stored.
func auditPayload(c *fiber.Ctx) datatypes.JSON {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return nil
	}

	var body map[string]interface{}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return nil
	}
	for _, f := range redactedFields {
		if _, ok := body[f]; ok {
			body[f] = "[redacted]"
		}
	}

	out, err := json.Marshal(body)
	if err != nil {
		return nil
	}
	return datatypes.JSON(out)
}
