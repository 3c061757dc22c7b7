// Package api exposes the operator over REST and WebSocket: order
// submission into the open window and read access to settled batches.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/D9J9V/UniCow/pkg/core"
	"github.com/D9J9V/UniCow/pkg/intake"
	"github.com/D9J9V/UniCow/pkg/storage"
)

// BatchReader is the read side of the batch store.
type BatchReader interface {
	GetBatch(seq uint64) (*storage.BatchRecord, bool, error)
	LatestSeq() (uint64, bool, error)
}

// Server handles REST routes and owns the WebSocket hub.
type Server struct {
	pool    *intake.Pool
	batches BatchReader
	router  *mux.Router
	hub     *Hub
	origins []string
	log     *zap.SugaredLogger
}

func NewServer(pool *intake.Pool, batches BatchReader, origins []string, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		pool:    pool,
		batches: batches,
		router:  mux.NewRouter(),
		hub:     NewHub(log),
		origins: origins,
		log:     log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/pool", s.handleGetPool).Methods("GET")
	api.HandleFunc("/batches/latest", s.handleGetLatestBatch).Methods("GET")
	api.HandleFunc("/batches/{seq}", s.handleGetBatch).Methods("GET")
	api.HandleFunc("/batches/{seq}/transfers", s.handleGetBatchTransfers).Methods("GET")

	s.router.HandleFunc("/ws", s.hub.serveWS)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the hub and serves HTTP on addr; it blocks like
// http.ListenAndServe.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	s.log.Infow("api_listening", "addr", addr)
	server := &http.Server{
		Addr:         addr,
		Handler:      c.Handler(s.router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return server.ListenAndServe()
}

// NotifyBatch implements batch.Notifier: settled batches go out on the
// settlements channel.
func (s *Server) NotifyBatch(rec *storage.BatchRecord) {
	s.hub.Broadcast(ChannelSettlements, batchInfo(rec))
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var so intake.SignedOrder
	if err := json.NewDecoder(r.Body).Decode(&so); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id, err := s.pool.Submit(&so)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) || errors.Is(err, core.ErrArithmeticOverflow) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			s.log.Errorw("submit_failed", "err", err)
			writeError(w, http.StatusInternalServerError, "submission failed")
		}
		return
	}
	writeJSON(w, http.StatusAccepted, SubmitOrderResponse{OrderID: id, Status: "pending"})
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PoolInfo{Pending: s.pool.Len()})
}

func (s *Server) handleGetLatestBatch(w http.ResponseWriter, r *http.Request) {
	seq, ok, err := s.batches.LatestSeq()
	if err != nil {
		s.log.Errorw("latest_seq_failed", "err", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no settled batches yet")
		return
	}
	s.writeBatch(w, seq)
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseUint(mux.Vars(r)["seq"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch sequence")
		return
	}
	s.writeBatch(w, seq)
}

func (s *Server) handleGetBatchTransfers(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseUint(mux.Vars(r)["seq"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch sequence")
		return
	}
	rec, ok, err := s.batches.GetBatch(seq)
	if err != nil {
		s.log.Errorw("get_batch_failed", "seq", seq, "err", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	writeJSON(w, http.StatusOK, batchInfo(rec).Transfers)
}

func (s *Server) writeBatch(w http.ResponseWriter, seq uint64) {
	rec, ok, err := s.batches.GetBatch(seq)
	if err != nil {
		s.log.Errorw("get_batch_failed", "seq", seq, "err", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	writeJSON(w, http.StatusOK, batchInfo(rec))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func batchInfo(rec *storage.BatchRecord) BatchInfo {
	info := BatchInfo{
		Seq:       rec.Seq,
		ClosedAt:  rec.ClosedAt,
		Orders:    len(rec.Orders),
		Transfers: make([]TransferInfo, 0, len(rec.Transfers)),
		Outcomes:  make([]OrderOutcomeInfo, 0, len(rec.Diagnostics)),
	}
	for _, tr := range rec.Transfers {
		info.Transfers = append(info.Transfers, TransferInfo{
			LenderID:   tr.LenderID,
			BorrowerID: tr.BorrowerID,
			Lender:     tr.Lender.Hex(),
			Borrower:   tr.Borrower.Hex(),
			Amount:     tr.Amount.String(),
			Rate:       tr.Rate.String(),
			Maturity:   tr.Maturity,
		})
	}
	// Outcomes in order-id order so responses are stable.
	for _, o := range rec.Orders {
		d, ok := rec.Diagnostics[o.ID]
		if !ok {
			continue
		}
		oi := OrderOutcomeInfo{OrderID: o.ID, Matched: d.Matched.String(), Reason: d.Reason}
		if d.Rate != nil {
			oi.Rate = d.Rate.String()
		}
		info.Outcomes = append(info.Outcomes, oi)
	}
	return info
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
