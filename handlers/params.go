package handlers

import (
	"io"
	"strconv"

	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/services"
	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/d-valsamis/student-portal/utils/middleware"
	"github.com/gofiber/fiber/v2"
)

// ParamID parses a positive numeric route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.Validation("Invalid " + name)
	}
	return uint(id), nil
}

// QueryID parses an optional numeric query parameter; absent means 0.
// Each name is tried in turn so camelCase and snake_case both work.
func QueryID(c *fiber.Ctx, names ...string) (uint, error) {
	for _, name := range names {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			return 0, apperror.Validation("Invalid " + name)
		}
		return uint(id), nil
	}
	return 0, nil
}

// CurrentCaller returns the identity set by the auth middleware.
func CurrentCaller(c *fiber.Ctx) services.Caller {
	id, _ := middleware.GetUserID(c)
	role, _ := middleware.GetUserRole(c)
	return services.Caller{ID: id, Role: role}
}

// SendFile streams a stored file as an attachment named downloadName.
// The reader is closed once the body has been written.
func SendFile(c *fiber.Ctx, f *model.StoredFile, r io.ReadCloser, downloadName string) error {
	if downloadName == "" {
		downloadName = f.OriginalName
	}
	c.Attachment(downloadName)
	c.Set(fiber.HeaderContentType, f.ContentType)
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	return c.SendStream(r, int(f.Size))
}
