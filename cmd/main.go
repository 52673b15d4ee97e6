package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bonus_service/internal/bet"
	"bonus_service/internal/bonus"
	"bonus_service/internal/config"
	"bonus_service/internal/db"
	"bonus_service/internal/jobs"
	"bonus_service/internal/template"
	"bonus_service/internal/user"
	"bonus_service/internal/wallet"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalln(err)
	}

	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatalln(err)
	}

	if cfg.DBAutoMigrate {
		log.Info("running auto-migration")
		if err := conn.AutoMigrate(
			&template.BonusTemplate{},
			&user.User{},
			&bet.Bet{},
			&wallet.Wallet{},
			&wallet.Transaction{},
			&wallet.LedgerEntry{},
			&bonus.PlayerBonus{},
			&bonus.HistoryEntry{},
			&bonus.WagerEvent{},
		); err != nil {
			log.Fatalln(err)
		}
	}

	engine := bonus.NewEngine(
		db.NewTxManager(conn),
		bonus.NewBonusRepository(conn),
		template.NewTemplateRepository(conn),
		wallet.NewWalletRepository(conn),
		user.NewUserRepository(conn),
		bet.NewBetRepository(conn),
	)

	scheduler := jobs.NewScheduler(engine)
	if err := scheduler.Start(context.Background(), cfg.ExpirySweepSchedule); err != nil {
		log.Fatalln(err)
	}
	defer scheduler.Stop()

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/bonus/claim", func(c *gin.Context) {
		var req struct {
			UserID        string          `json:"user_id" binding:"required"`
			TenantID      string          `json:"tenant_id" binding:"required"`
			Code          string          `json:"code" binding:"required"`
			DepositAmount decimal.Decimal `json:"deposit_amount"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		b, err := engine.ClaimBonus(c.Request.Context(), req.UserID, req.TenantID, req.Code, req.DepositAmount)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, b)
	})

	r.POST("/bonus/free-bet", func(c *gin.Context) {
		var req struct {
			UserID    string          `json:"user_id" binding:"required"`
			BonusID   string          `json:"bonus_id" binding:"required"`
			BetID     string          `json:"bet_id" binding:"required"`
			BetAmount decimal.Decimal `json:"bet_amount"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		b, err := engine.ApplyFreeBet(c.Request.Context(), req.UserID, req.BonusID, req.BetID, req.BetAmount)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, b)
	})

	r.GET("/bonus/free-bets", func(c *gin.Context) {
		bonuses, err := engine.GetAvailableFreeBets(c.Request.Context(), c.Query("user_id"), c.Query("tenant_id"))
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"free_bets": bonuses})
	})

	r.POST("/bonus/combo-boost", func(c *gin.Context) {
		var req struct {
			UserID       string          `json:"user_id" binding:"required"`
			TenantID     string          `json:"tenant_id" binding:"required"`
			BetID        string          `json:"bet_id" binding:"required"`
			Legs         int             `json:"legs"`
			PotentialWin decimal.Decimal `json:"potential_win"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := engine.ApplyComboBoost(c.Request.Context(), req.UserID, req.TenantID, req.BetID, req.Legs, req.PotentialWin)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	r.GET("/bonus/cashback", func(c *gin.Context) {
		preview, err := engine.CalculateCashback(c.Request.Context(), c.Query("user_id"), c.Query("tenant_id"))
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, preview)
	})

	r.POST("/bonus/cashback/credit", func(c *gin.Context) {
		var req struct {
			UserID   string `json:"user_id" binding:"required"`
			TenantID string `json:"tenant_id" binding:"required"`
			BonusID  string `json:"bonus_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		b, err := engine.CreditCashback(c.Request.Context(), req.UserID, req.TenantID, req.BonusID)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, b)
	})

	r.POST("/bonus/wager", func(c *gin.Context) {
		var req struct {
			UserID       string          `json:"user_id" binding:"required"`
			TenantID     string          `json:"tenant_id" binding:"required"`
			BetID        string          `json:"bet_id" binding:"required"`
			BetAmount    decimal.Decimal `json:"bet_amount"`
			GameCategory string          `json:"game_category"`
			Odds         decimal.Decimal `json:"odds"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err := engine.ProcessWager(c.Request.Context(), req.UserID, req.TenantID, req.BetID,
			req.BetAmount, template.GameCategory(req.GameCategory), req.Odds)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "processed"})
	})

	r.POST("/admin/bonus/grant", func(c *gin.Context) {
		var req struct {
			UserID     string          `json:"user_id" binding:"required"`
			TenantID   string          `json:"tenant_id" binding:"required"`
			TemplateID string          `json:"template_id" binding:"required"`
			Amount     decimal.Decimal `json:"amount"`
			AdminID    string          `json:"admin_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		b, err := engine.CreditManualBonus(c.Request.Context(), req.UserID, req.TenantID, req.TemplateID, req.Amount, req.AdminID)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, b)
	})

	r.POST("/admin/bonus/:bonus_id/cancel", func(c *gin.Context) {
		var req struct {
			AdminID string `json:"admin_id" binding:"required"`
			Reason  string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		b, err := engine.CancelBonus(c.Request.Context(), c.Param("bonus_id"), req.AdminID, req.Reason)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, b)
	})

	r.POST("/admin/bonus/expire-sweep", func(c *gin.Context) {
		count, err := engine.ProcessExpiredBonuses(c.Request.Context())
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"processed": count})
	})

	log.WithField("addr", cfg.HTTPAddr).Info("server starting")
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalln(err)
	}
}

// statusFor maps the engine's business-rule rejections to HTTP statuses.
// A missing wallet is a data-integrity fault, not a user error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, template.ErrTemplateNotFound),
		errors.Is(err, bonus.ErrBonusNotFound),
		errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, bonus.ErrNotYetAvailable),
		errors.Is(err, bonus.ErrBonusOfferExpired),
		errors.Is(err, bonus.ErrMaxClaimsReached),
		errors.Is(err, bonus.ErrBonusExhausted),
		errors.Is(err, bonus.ErrMinDepositNotMet),
		errors.Is(err, bonus.ErrNotNewPlayer),
		errors.Is(err, bonus.ErrInsufficientDeposits),
		errors.Is(err, bonus.ErrKycRequired),
		errors.Is(err, bonus.ErrFreeBetUnavailable),
		errors.Is(err, bonus.ErrStakeExceedsLimit),
		errors.Is(err, bonus.ErrBonusNotActive):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
