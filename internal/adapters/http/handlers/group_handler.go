package handlers

import (
	"strings"

	"authgate/internal/core/services"
	"authgate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// GroupHandler handles group management endpoints
type GroupHandler struct {
	groups *services.GroupService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groups *services.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// CreateGroupRequest represents the new-group request body
type CreateGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// MemberRequest identifies a member by id or email
type MemberRequest struct {
	Member string `json:"member"`
	Force  bool   `json:"force"`
}

// Create creates a new group
func (h *GroupHandler) Create(c *fiber.Ctx) error {
	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Name == "" {
		return response.BadRequest(c, "Group name is required")
	}

	group, err := h.groups.Create(c.Context(), strings.TrimSpace(req.Name), req.Members)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Created(c, "Group created successfully", fiber.Map{
		"group": group,
	})
}

// Delete removes a group
func (h *GroupHandler) Delete(c *fiber.Ctx) error {
	if err := h.groups.Delete(c.Context(), c.Params("id")); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Group deleted successfully", nil)
}

// Find searches groups by name substring
func (h *GroupHandler) Find(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return response.BadRequest(c, "Query parameter 'q' is required")
	}

	matches, err := h.groups.FindLike(c.Context(), query)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Groups retrieved successfully", fiber.Map{
		"groups": matches,
	})
}

// Details returns a group by id
func (h *GroupHandler) Details(c *fiber.Ctx) error {
	group, err := h.groups.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Group retrieved successfully", fiber.Map{
		"group": group,
	})
}

// AddMember adds a user to a group by id or email
func (h *GroupHandler) AddMember(c *fiber.Ctx) error {
	var req MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Member == "" {
		return response.BadRequest(c, "Member is required")
	}

	members, err := h.groups.AddMember(c.Context(), c.Params("id"), strings.TrimSpace(req.Member))
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Member added successfully", fiber.Map{
		"members": members,
	})
}

// RemoveMember removes a user from a group. With force the member id is
// removed without resolving it, which cleans up references to deleted
// users.
func (h *GroupHandler) RemoveMember(c *fiber.Ctx) error {
	var req MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Member == "" {
		return response.BadRequest(c, "Member is required")
	}

	members, err := h.groups.RemoveMember(c.Context(), c.Params("id"), strings.TrimSpace(req.Member), req.Force)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Member removed successfully", fiber.Map{
		"members": members,
	})
}

// MembersDetail returns the profile of every member in the group
func (h *GroupHandler) MembersDetail(c *fiber.Ctx) error {
	details, err := h.groups.MembersDetail(c.Context(), c.Params("id"))
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Members retrieved successfully", fiber.Map{
		"members": details,
	})
}

// MemberAttribute returns a single attribute for every member
func (h *GroupHandler) MemberAttribute(c *fiber.Ctx) error {
	values, err := h.groups.MemberAttribute(c.Context(), c.Params("id"), c.Params("attribute"))
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Member attribute retrieved successfully", fiber.Map{
		"members": values,
	})
}

// ForUser lists the groups a user belongs to
func (h *GroupHandler) ForUser(c *fiber.Ctx) error {
	groups, err := h.groups.GroupsForUser(c.Context(), c.Params("userId"))
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Groups retrieved successfully", fiber.Map{
		"groups": groups,
	})
}
