package admin

import (
	"strconv"

	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/utils/response"
	"github.com/gofiber/fiber/v2"
)

// ListAuditLogs retrieves admin audit logs with pagination
// GET /api/admin/audit-logs
func ListAuditLogs(c *fiber.Ctx, store database.Storage) error {
	db := store.GetDB().WithContext(c.UserContext())

	// Pagination
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	// Filters
	query := db.Model(&model.AdminAuditLog{})
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if adminIDStr := c.Query("admin_id"); adminIDStr != "" {
		if adminID, err := strconv.ParseUint(adminIDStr, 10, 32); err == nil {
			query = query.Where("admin_id = ?", adminID)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.FromError(c, database.MapError(err, ""))
	}

	var logs []model.AdminAuditLog
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at DESC").Find(&logs).Error; err != nil {
		return response.FromError(c, database.MapError(err, ""))
	}

	return response.Paginated(c, logs, response.CalculatePagination(page, limit, total))
}

// GetAuditLog retrieves a specific audit log entry
// GET /api/admin/audit-logs/:id
func GetAuditLog(c *fiber.Ctx, store database.Storage) error {
	logID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid log ID")
	}

	var entry model.AdminAuditLog
	if err := store.GetDB().WithContext(c.UserContext()).First(&entry, logID).Error; err != nil {
		return response.FromError(c, database.MapError(err, "Audit log not found"))
	}

	return response.Success(c, entry)
}
