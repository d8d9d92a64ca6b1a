// ABOUTME: Gin-based in-memory twin of the MBG admin backend
// ABOUTME: Serves auth, paged collections, nested branches and state transitions for tests and dev-server
package fakeapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/mbgctl/models"
)

// BasePath prefixes every route, matching the production backend.
const BasePath = "/api/v1"

const (
	DefaultEmail    = "admin@mbg.local"
	DefaultPassword = "admin123"
)

type entityDef struct {
	name string
	// required fields rejected with 400 when empty.
	required []string
	// server-owned fields dropped from requests and kept across updates.
	server   []string
	defaults func(obj Object, claims *Claims)
}

// Server is the fake backend. Create with New and mount Handler.
type Server struct {
	engine *gin.Engine
	issuer *issuer
	logger *slog.Logger

	collections map[string]*collection
	branches    *collection

	mu       sync.Mutex
	lastAuth string
	requests int
}

// Option configures a Server.
type Option func(*Server)

// WithUser registers an account that can log in.
func WithUser(email, password string, user models.User) Option {
	return func(s *Server) {
		user.Email = email
		s.issuer.addUser(password, user)
	}
}

// WithTokenLifetime sets the access token lifetime.
func WithTokenLifetime(d time.Duration) Option {
	return func(s *Server) { s.issuer.lifetime = d }
}

// WithSecret sets the HMAC key used to sign access tokens.
func WithSecret(secret string) Option {
	return func(s *Server) { s.issuer.secret = []byte(secret) }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock overrides the time source used for token issuing and validation.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.issuer.now = now }
}

// New builds the fake backend with the default admin account.
func New(opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		issuer:      newIssuer("mbg-dev-secret", time.Hour),
		logger:      slog.Default(),
		collections: make(map[string]*collection),
		branches:    newCollection(),
	}
	s.issuer.addUser(DefaultPassword, models.User{
		Email:     DefaultEmail,
		FirstName: "Admin",
		LastName:  "MBG",
		Role:      "SUPER_ADMIN",
	})
	for _, opt := range opts {
		opt(s)
	}

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.logRequests())
	s.routes()
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// LastAuthorization returns the Authorization header of the most recent
// authenticated-route request, empty when none was sent.
func (s *Server) LastAuthorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}

// Requests counts requests to authenticated routes.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Seed stores obj directly in the named collection and returns it with its id.
func (s *Server) Seed(name string, obj Object) Object {
	if name == "branches" {
		return s.branches.insert(obj)
	}
	col, ok := s.collections[name]
	if !ok {
		return nil
	}
	return col.insert(obj)
}

// Reset drops all entities and outstanding refresh tokens.
func (s *Server) Reset() {
	for _, col := range s.collections {
		col.reset()
	}
	s.branches.reset()
	s.issuer.reset()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

var entities = []struct {
	path  string
	paged bool
	def   entityDef
}{
	{"/governance/organizations", true, entityDef{
		name:     "organizations",
		required: []string{"name", "code"},
		server:   []string{"isActive", "createdAt", "subscriptionExpiresAt", "currentBranches", "currentUsers"},
		defaults: func(obj Object, _ *Claims) {
			obj["isActive"] = true
			obj["createdAt"] = now()
			obj["currentBranches"] = 0
			obj["currentUsers"] = 0
		},
	}},
	{"/schools", true, entityDef{name: "schools", required: []string{"name"}}},
	{"/students", true, entityDef{name: "students", required: []string{"name", "schoolId"}}},
	{"/meals", true, entityDef{name: "meals", required: []string{"name", "schoolId"}}},
	{"/meal-plans", true, entityDef{name: "meal-plans", required: []string{"studentId", "mealId"}}},
	{"/orders", true, entityDef{
		name:     "orders",
		required: []string{"supplierId"},
		server:   []string{"status"},
		defaults: func(obj Object, _ *Claims) {
			obj["status"] = string(models.OrderPending)
		},
	}},
	{"/suppliers", true, entityDef{name: "suppliers", required: []string{"name"}}},
	{"/governance/documents", true, entityDef{
		name:     "documents",
		required: []string{"title", "documentType", "documentUrl"},
		server:   []string{"status", "submittedBy", "submittedAt", "reviewedBy", "approvedBy", "reviewedAt", "rejectionReason", "createdAt"},
		defaults: func(obj Object, claims *Claims) {
			obj["status"] = string(models.DocumentPending)
			obj["submittedAt"] = now()
			obj["createdAt"] = now()
			if claims != nil {
				obj["submittedBy"] = claims.Email
			}
		},
	}},
	{"/announcements", true, entityDef{
		name:     "announcements",
		required: []string{"title", "content"},
		server:   []string{"createdAt", "createdBy"},
		defaults: func(obj Object, claims *Claims) {
			obj["createdAt"] = now()
			if claims != nil {
				obj["createdBy"] = claims.Email
			}
		},
	}},
}

var branchDef = entityDef{
	name:     "branches",
	required: []string{"name", "code"},
	server:   []string{"organizationId", "isActive", "managerName"},
	defaults: func(obj Object, _ *Claims) {
		obj["isActive"] = true
	},
}

func (s *Server) routes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	v1 := s.engine.Group(BasePath)

	auth := v1.Group("/auth")
	{
		auth.POST("/login", s.login)
		auth.POST("/refresh", s.refresh)
	}

	protected := v1.Group("", s.requireAuth())
	protected.GET("/auth/me", s.me)
	protected.GET("/auth/profile", s.me)
	protected.PUT("/auth/profile", s.updateProfile)
	protected.POST("/auth/change-password", s.changePassword)

	for _, e := range entities {
		col := newCollection()
		s.collections[e.def.name] = col
		h := &collectionHandler{server: s, def: e.def, col: col, paged: e.paged}

		group := protected.Group(e.path)
		if e.def.name == "documents" {
			s.documentRoutes(group, col)
		}
		group.GET("", h.list)
		group.POST("", h.create)
		group.GET("/:id", h.get)
		group.PUT("/:id", h.update)
		group.DELETE("/:id", h.delete)
	}

	orgs := s.collections["organizations"]
	protected.PUT("/governance/organizations/:id/activate", s.setActive(orgs, true))
	protected.PUT("/governance/organizations/:id/deactivate", s.setActive(orgs, false))
	protected.PUT("/orders/:id/status", s.orderStatus)

	branches := &branchHandler{
		collectionHandler: collectionHandler{
			server: s,
			def:    branchDef,
			col:    s.branches,
			scope: func(c *gin.Context) Object {
				return Object{"organizationId": c.Param("orgId")}
			},
		},
		orgs: orgs,
	}
	nested := protected.Group("/organizations/:orgId/branches", branches.requireOrganization)
	nested.GET("", branches.list)
	nested.POST("", branches.create)
	nested.GET("/:id", branches.get)
	nested.PUT("/:id", branches.update)
	nested.DELETE("/:id", branches.delete)
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("fakeapi request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// errorBody mirrors the backend's ErrorResponse record.
type errorBody struct {
	Success          bool              `json:"success"`
	Message          string            `json:"message"`
	StatusCode       int               `json:"statusCode"`
	TraceID          string            `json:"traceId"`
	ValidationErrors map[string]string `json:"validationErrors"`
	Timestamp        string            `json:"timestamp"`
}

func fail(c *gin.Context, status int, message string, fields map[string]string) {
	c.AbortWithStatusJSON(status, errorBody{
		Success:          false,
		Message:          message,
		StatusCode:       status,
		TraceID:          newID(),
		ValidationErrors: fields,
		Timestamp:        time.Now().Format("2006-01-02T15:04:05.000"),
	})
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		s.mu.Lock()
		s.lastAuth = header
		s.requests++
		s.mu.Unlock()

		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			fail(c, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		claims, err := s.issuer.validate(token)
		if err != nil {
			fail(c, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}
		c.Set("claims", claims)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *Claims {
	v, _ := c.Get("claims")
	claims, _ := v.(*Claims)
	return claims
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	resp, err := s.issuer.login(req.Email, req.Password)
	if err != nil {
		fail(c, http.StatusUnauthorized, err.Error(), nil)
		return
	}
	ok(c, http.StatusOK, resp)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		fail(c, http.StatusBadRequest, "refresh_token is required", nil)
		return
	}
	resp, err := s.issuer.exchange(req.RefreshToken)
	if err != nil {
		fail(c, http.StatusUnauthorized, err.Error(), nil)
		return
	}
	ok(c, http.StatusOK, resp)
}

func (s *Server) me(c *gin.Context) {
	claims := claimsFrom(c)
	s.issuer.mu.Lock()
	acct, found := s.issuer.accounts[claims.Email]
	s.issuer.mu.Unlock()
	if !found {
		fail(c, http.StatusNotFound, "User not found", nil)
		return
	}
	ok(c, http.StatusOK, acct.user)
}

func (s *Server) setActive(orgs *collection, active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		obj, found := orgs.patch(c.Param("id"), Object{"isActive": active})
		if !found {
			fail(c, http.StatusNotFound, "Organization not found", nil)
			return
		}
		ok(c, http.StatusOK, obj)
	}
}

func (s *Server) orderStatus(c *gin.Context) {
	status := models.OrderStatus(c.Query("status"))
	if !status.Valid() {
		fail(c, http.StatusBadRequest, "Invalid order status", map[string]string{"status": "must be one of PENDING, CONFIRMED, IN_PROGRESS, DELIVERED, CANCELLED"})
		return
	}
	obj, found := s.collections["orders"].patch(c.Param("id"), Object{"status": string(status)})
	if !found {
		fail(c, http.StatusNotFound, "Order not found", nil)
		return
	}
	ok(c, http.StatusOK, obj)
}

type collectionHandler struct {
	server *Server
	def    entityDef
	col    *collection
	paged  bool
	// scope narrows list results and stamps created objects.
	scope func(c *gin.Context) Object
}

func (h *collectionHandler) scoped(c *gin.Context) Object {
	if h.scope == nil {
		return nil
	}
	return h.scope(c)
}

func (h *collectionHandler) list(c *gin.Context) {
	filters := Object{}
	for key, values := range c.Request.URL.Query() {
		if key == "page" || key == "size" || len(values) == 0 {
			continue
		}
		filters[key] = values[0]
	}
	for k, v := range h.scoped(c) {
		filters[k] = v
	}

	items := h.col.list(func(obj Object) bool {
		for k, want := range filters {
			if got, present := obj[k]; !present || stringify(got) != stringify(want) {
				return false
			}
		}
		return true
	})

	if !h.paged {
		ok(c, http.StatusOK, items)
		return
	}

	page, errPage := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, errSize := strconv.Atoi(c.DefaultQuery("size", "10"))
	if errPage != nil || errSize != nil || page < 0 || size <= 0 {
		fail(c, http.StatusBadRequest, "Invalid pagination parameters", nil)
		return
	}

	total := len(items)
	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	ok(c, http.StatusOK, gin.H{
		"content":       items[start:end],
		"totalElements": total,
		"totalPages":    (total + size - 1) / size,
		"number":        page,
		"size":          size,
		"first":         page == 0,
		"last":          end >= total,
	})
}

func (h *collectionHandler) get(c *gin.Context) {
	obj, found := h.col.get(c.Param("id"))
	if !found || !h.inScope(c, obj) {
		h.notFound(c)
		return
	}
	ok(c, http.StatusOK, obj)
}

func (h *collectionHandler) bind(c *gin.Context) (Object, bool) {
	var obj Object
	if err := c.ShouldBindJSON(&obj); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return nil, false
	}
	delete(obj, "id")
	for _, k := range h.def.server {
		delete(obj, k)
	}

	missing := map[string]string{}
	for _, field := range h.def.required {
		if strings.TrimSpace(stringify(obj[field])) == "" {
			missing[field] = "must not be blank"
		}
	}
	if len(missing) > 0 {
		fail(c, http.StatusBadRequest, "Validation failed", missing)
		return nil, false
	}
	return obj, true
}

func (h *collectionHandler) create(c *gin.Context) {
	obj, valid := h.bind(c)
	if !valid {
		return
	}
	if h.def.defaults != nil {
		h.def.defaults(obj, claimsFrom(c))
	}
	for k, v := range h.scoped(c) {
		obj[k] = v
	}
	ok(c, http.StatusCreated, h.col.insert(obj))
}

func (h *collectionHandler) update(c *gin.Context) {
	id := c.Param("id")
	if existing, found := h.col.get(id); !found || !h.inScope(c, existing) {
		h.notFound(c)
		return
	}
	obj, valid := h.bind(c)
	if !valid {
		return
	}
	updated, found := h.col.replace(id, obj, h.def.server...)
	if !found {
		h.notFound(c)
		return
	}
	ok(c, http.StatusOK, updated)
}

func (h *collectionHandler) delete(c *gin.Context) {
	id := c.Param("id")
	if existing, found := h.col.get(id); !found || !h.inScope(c, existing) {
		h.notFound(c)
		return
	}
	if !h.col.delete(id) {
		h.notFound(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "deleted"})
}

func (h *collectionHandler) inScope(c *gin.Context, obj Object) bool {
	for k, v := range h.scoped(c) {
		if stringify(obj[k]) != stringify(v) {
			return false
		}
	}
	return true
}

func (h *collectionHandler) notFound(c *gin.Context) {
	fail(c, http.StatusNotFound, h.def.name+" not found: "+c.Param("id"), nil)
}

// branchHandler serves branches nested under an existing organization and
// keeps the organization's currentBranches count in step.
type branchHandler struct {
	collectionHandler
	orgs *collection
}

func (b *branchHandler) requireOrganization(c *gin.Context) {
	if _, found := b.orgs.get(c.Param("orgId")); !found {
		fail(c, http.StatusNotFound, "organizations not found: "+c.Param("orgId"), nil)
		return
	}
	c.Next()
}

func (b *branchHandler) create(c *gin.Context) {
	b.collectionHandler.create(c)
	if !c.IsAborted() {
		b.recount(c.Param("orgId"))
	}
}

func (b *branchHandler) delete(c *gin.Context) {
	b.collectionHandler.delete(c)
	if !c.IsAborted() {
		b.recount(c.Param("orgId"))
	}
}

func (b *branchHandler) recount(orgID string) {
	n := len(b.col.list(func(obj Object) bool { return obj.str("organizationId") == orgID }))
	b.orgs.patch(orgID, Object{"currentBranches": n})
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	}
	return ""
}
