// ABOUTME: Governance document review and self-service profile routes for the fake backend
// ABOUTME: Pending queue, approve/reject transitions, review stats, profile update and password change
package fakeapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/mbgctl/models"
)

func (s *Server) documentRoutes(group *gin.RouterGroup, docs *collection) {
	group.GET("/pending", func(c *gin.Context) {
		ok(c, http.StatusOK, docs.list(func(obj Object) bool {
			return obj.str("status") == string(models.DocumentPending)
		}))
	})

	group.GET("/stats", func(c *gin.Context) {
		stats := models.DocumentStats{}
		for _, obj := range docs.list(nil) {
			stats.TotalDocuments++
			switch models.DocumentStatus(obj.str("status")) {
			case models.DocumentPending:
				stats.PendingDocuments++
			case models.DocumentApproved:
				stats.ApprovedDocuments++
			case models.DocumentRejected:
				stats.RejectedDocuments++
			}
		}
		ok(c, http.StatusOK, stats)
	})

	group.PUT("/:id/approve", func(c *gin.Context) {
		reviewer := claimsFrom(c).Email
		s.review(c, docs, Object{
			"status":     string(models.DocumentApproved),
			"approvedBy": reviewer,
			"reviewedBy": reviewer,
			"reviewedAt": now(),
		})
	})

	group.PUT("/:id/reject", func(c *gin.Context) {
		var req models.RejectDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Invalid request body", nil)
			return
		}
		if strings.TrimSpace(req.RejectionReason) == "" {
			fail(c, http.StatusBadRequest, "Validation failed", map[string]string{"rejectionReason": "must not be blank"})
			return
		}
		s.review(c, docs, Object{
			"status":          string(models.DocumentRejected),
			"reviewedBy":      claimsFrom(c).Email,
			"reviewedAt":      now(),
			"rejectionReason": req.RejectionReason,
		})
	})
}

// review applies a decision to a document that is still pending.
func (s *Server) review(c *gin.Context, docs *collection, decision Object) {
	id := c.Param("id")
	existing, found := docs.get(id)
	if !found {
		fail(c, http.StatusNotFound, "documents not found: "+id, nil)
		return
	}
	if existing.str("status") != string(models.DocumentPending) {
		fail(c, http.StatusConflict, "Document has already been reviewed", nil)
		return
	}
	obj, _ := docs.patch(id, decision)
	ok(c, http.StatusOK, obj)
}

func (s *Server) updateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	email := claimsFrom(c).Email
	s.issuer.mu.Lock()
	acct, found := s.issuer.accounts[email]
	if found {
		for dst, v := range map[*string]string{
			&acct.user.FirstName: req.FirstName,
			&acct.user.LastName:  req.LastName,
			&acct.user.Phone:     req.Phone,
			&acct.user.Address:   req.Address,
		} {
			if v != "" {
				*dst = v
			}
		}
		s.issuer.accounts[email] = acct
	}
	s.issuer.mu.Unlock()

	if !found {
		fail(c, http.StatusNotFound, "User not found", nil)
		return
	}
	ok(c, http.StatusOK, acct.user)
}

func (s *Server) changePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if req.NewPassword == "" {
		fail(c, http.StatusBadRequest, "Validation failed", map[string]string{"newPassword": "must not be blank"})
		return
	}

	email := claimsFrom(c).Email
	s.issuer.mu.Lock()
	acct, found := s.issuer.accounts[email]
	matches := found && acct.password == req.OldPassword
	if matches {
		acct.password = req.NewPassword
		s.issuer.accounts[email] = acct
	}
	s.issuer.mu.Unlock()

	if !matches {
		fail(c, http.StatusBadRequest, "Current password is incorrect", map[string]string{"oldPassword": "does not match"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed"})
}
