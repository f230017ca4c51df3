package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mora090410/homework/internal/backup"
	"github.com/mora090410/homework/internal/handler"
	"github.com/mora090410/homework/internal/ledger"
	"github.com/mora090410/homework/internal/middleware"
	"github.com/mora090410/homework/internal/store"
)

type Server struct {
	db            *sql.DB
	householdH    *handler.HouseholdHandler
	profileH      *handler.ProfileHandler
	gradeConfigH  *handler.GradeConfigHandler
	taskH         *handler.TaskHandler
	ledgerH       *handler.LedgerHandler
	goalH         *handler.GoalHandler
	backupH       *handler.BackupHandler
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, backupCfg backup.Config, logger *slog.Logger) *Server {
	householdStore := store.NewHouseholdStore(db)
	profileStore := store.NewProfileStore(db)
	gradeConfigStore := store.NewGradeConfigStore(db)
	taskStore := store.NewTaskStore(db)
	ledgerStore := store.NewLedgerStore(db)
	goalStore := store.NewGoalStore(db)
	backupStore := store.NewBackupStore(db)

	ledgerSvc := ledger.NewService(ledgerStore, profileStore, goalStore, logger.With("component", "ledger"))
	backupMgr := backup.NewManager(backupCfg, db, backupStore)

	return &Server{
		db:            db,
		householdH:    handler.NewHouseholdHandler(householdStore),
		profileH:      handler.NewProfileHandler(profileStore, gradeConfigStore),
		gradeConfigH:  handler.NewGradeConfigHandler(gradeConfigStore, profileStore),
		taskH:         handler.NewTaskHandler(taskStore, profileStore, gradeConfigStore),
		ledgerH:       handler.NewLedgerHandler(ledgerSvc, ledgerStore, profileStore),
		goalH:         handler.NewGoalHandler(goalStore, profileStore, ledgerSvc),
		backupH:       handler.NewBackupHandler(backupMgr, backupStore),
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		logger:        logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Household routes
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("GET /api/households", s.householdH.List)
	mux.HandleFunc("GET /api/households/{id}", s.householdH.Get)
	mux.HandleFunc("GET /api/households/{id}/grade-configs", s.gradeConfigH.ListHousehold)
	mux.HandleFunc("PUT /api/households/{id}/grade-configs", s.gradeConfigH.SetHousehold)

	// Profile routes
	mux.HandleFunc("POST /api/profiles", s.profileH.Create)
	mux.HandleFunc("GET /api/profiles", s.profileH.List)
	mux.HandleFunc("GET /api/profiles/{id}", s.profileH.Get)
	mux.HandleFunc("PUT /api/profiles/{id}", s.profileH.Update)
	mux.HandleFunc("DELETE /api/profiles/{id}", s.profileH.Delete)
	mux.HandleFunc("GET /api/profiles/{id}/rate", s.profileH.Rate)

	// Subject and pay-scale routes
	mux.HandleFunc("POST /api/profiles/{id}/subjects", s.profileH.AddSubject)
	mux.HandleFunc("PUT /api/subjects/{subject_id}", s.profileH.UpdateSubjectGrade)
	mux.HandleFunc("DELETE /api/subjects/{subject_id}", s.profileH.DeleteSubject)
	mux.HandleFunc("GET /api/profiles/{id}/grade-configs", s.gradeConfigH.ListProfile)
	mux.HandleFunc("PUT /api/profiles/{id}/grade-configs", s.gradeConfigH.SetProfile)
	mux.HandleFunc("DELETE /api/profiles/{id}/grade-configs", s.gradeConfigH.ClearProfile)

	// Task routes
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/publish", s.taskH.Publish)
	mux.HandleFunc("POST /api/tasks/{id}/claim", s.rateLimitedHandler(s.taskH.Claim))
	mux.HandleFunc("POST /api/tasks/{id}/submit", s.taskH.Submit)
	mux.HandleFunc("POST /api/tasks/{id}/approve", s.taskH.Approve)
	mux.HandleFunc("POST /api/tasks/{id}/reject", s.taskH.Reject)
	mux.HandleFunc("POST /api/tasks/{id}/unapprove", s.taskH.UndoApproval)
	mux.HandleFunc("POST /api/tasks/{id}/pay", s.taskH.Pay)

	// Ledger routes
	mux.HandleFunc("GET /api/profiles/{id}/transactions", s.ledgerH.Transactions)
	mux.HandleFunc("GET /api/profiles/{id}/balance", s.ledgerH.Balance)
	mux.HandleFunc("GET /api/profiles/{id}/balance/check", s.ledgerH.CheckBalance)
	mux.HandleFunc("POST /api/profiles/{id}/advances", s.ledgerH.RecordAdvance)
	mux.HandleFunc("POST /api/profiles/{id}/adjustments", s.ledgerH.RecordAdjustment)
	mux.HandleFunc("POST /api/profiles/{id}/withdrawals", s.ledgerH.RequestWithdrawal)
	mux.HandleFunc("POST /api/withdrawals/{id}/confirm", s.ledgerH.ConfirmWithdrawal)
	mux.HandleFunc("POST /api/withdrawals/{id}/reject", s.ledgerH.RejectWithdrawal)

	// Savings goal routes
	mux.HandleFunc("POST /api/profiles/{id}/goals", s.goalH.Create)
	mux.HandleFunc("GET /api/profiles/{id}/goals", s.goalH.List)
	mux.HandleFunc("POST /api/goals/{id}/allocate", s.goalH.Allocate)
	mux.HandleFunc("DELETE /api/goals/{id}", s.goalH.Delete)

	// Backup routes
	mux.HandleFunc("POST /api/backups", s.backupH.Run)
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 30, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
