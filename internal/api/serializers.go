package api

import "github.com/pvidal/amigoinvisible/internal/models"

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createGroupRequest struct {
	Name string `json:"name"`
}

type joinGroupRequest struct {
	Code string `json:"code"`
}

type drawRequest struct {
	// Confirm must be true to redraw a group that has already been drawn,
	// since redrawing irrecoverably discards the previous assignments.
	Confirm bool `json:"confirm"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type groupResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	CreatedBy string `json:"created_by"`
	IsDrawn   bool   `json:"is_drawn"`
	CreatedAt int64  `json:"created_at"`
}

// memberResponse deliberately has no assigned_to field: a member's
// assignment is only ever visible to that member, via /assignment.
type memberResponse struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	IsOwner  bool   `json:"is_owner"`
}

type groupDetailResponse struct {
	groupResponse
	Members []memberResponse `json:"members"`
}

type assignmentResponse struct {
	DisplayName string `json:"display_name"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toGroupResponse(g *models.Group) groupResponse {
	return groupResponse{
		ID:        g.ID,
		Name:      g.Name,
		Code:      g.Code,
		CreatedBy: g.CreatedBy,
		IsDrawn:   g.IsDrawn,
		CreatedAt: g.CreatedAt,
	}
}

func toGroupDetailResponse(g *models.Group, members []*models.Membership) groupDetailResponse {
	out := groupDetailResponse{
		groupResponse: toGroupResponse(g),
		Members:       make([]memberResponse, len(members)),
	}
	for i, m := range members {
		out.Members[i] = memberResponse{
			ID:       m.ID,
			UserID:   m.UserID,
			UserName: m.UserName,
			IsOwner:  m.UserID == g.CreatedBy,
		}
	}
	return out
}
