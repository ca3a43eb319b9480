package main

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mynt-trade-bot-go/internal/models"
)

// APIHandler serves read-only views over the trade and trader tables.
type APIHandler struct {
	logger *zap.Logger
	db     *gorm.DB
}

// NewAPIHandler creates an APIHandler.
func NewAPIHandler(logger *zap.Logger, db *gorm.DB) *APIHandler {
	return &APIHandler{logger: logger.Named("ui"), db: db}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// StatusHandler reports slot occupancy and open-position counts.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	var openTrades, busyTraders, totalTraders int64
	if err := h.db.Model(&models.Trade{}).Where("is_open = ?", true).Count(&openTrades).Error; err != nil {
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if err := h.db.Model(&models.Trader{}).Count(&totalTraders).Error; err != nil {
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if err := h.db.Model(&models.Trader{}).Where("is_busy = ?", true).Count(&busyTraders).Error; err != nil {
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]int64{
		"open_trades":  openTrades,
		"busy_traders": busyTraders,
		"free_traders": totalTraders - busyTraders,
		"traders":      totalTraders,
	})
}

// TradesHandler lists trades, newest first. ?open=true restricts the listing
// to open positions.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	q := h.db.Order("row_key asc")
	if r.URL.Query().Get("open") == "true" {
		q = q.Where("is_open = ?", true)
	}

	var trades []models.Trade
	if err := q.Find(&trades).Error; err != nil {
		h.logger.Error("Failed to list trades", zap.Error(err))
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, trades)
}

// TradersHandler lists the trader roster.
func (h *APIHandler) TradersHandler(w http.ResponseWriter, r *http.Request) {
	var traders []models.Trader
	if err := h.db.Order("row_key asc").Find(&traders).Error; err != nil {
		h.logger.Error("Failed to list traders", zap.Error(err))
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, traders)
}
