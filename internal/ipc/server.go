package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"marquee/internal/daemon"
	"marquee/internal/logging"
	"marquee/internal/runlog"
)

const defaultRunsLimit = 20

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. The shutdown
// callback is invoked when a client requests the daemon to stop.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger, shutdown func()) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx, shutdown: shutdown}
	if err := rpcServer.RegisterName("Marquee", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun marquee stop"))
	}
}

type service struct {
	daemon   *daemon.Daemon
	logger   *slog.Logger
	ctx      context.Context
	shutdown func()
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func convertRecord(record runlog.Record) RunRecord {
	return RunRecord{
		ID:           record.ID,
		RunID:        record.RunID,
		Trigger:      record.Trigger,
		Outcome:      string(record.Outcome),
		Message:      record.Message,
		TeamsUpdated: record.TeamsUpdated,
		StartedAt:    record.StartedAt.Format(time.RFC3339),
		FinishedAt:   record.FinishedAt.Format(time.RFC3339),
	}
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.Version = status.Version
	resp.WorkspaceDir = status.WorkspaceDir
	resp.LockPath = status.LockFilePath
	resp.RunLogPath = status.RunLogPath
	resp.Head = status.Head
	resp.Teams = append(resp.Teams, status.Teams...)
	resp.ContentOK = status.Content.OK
	resp.ContentMessage = status.Content.Message
	resp.ContentLastRun = status.Content.LastRun
	if status.LastRun != nil {
		record := convertRecord(*status.LastRun)
		resp.LastRun = &record
	}
	return nil
}

func (s *service) Sync(_ SyncRequest, resp *SyncResponse) error {
	s.log().Debug("manual sync requested")
	result, err := s.daemon.SyncNow(s.ctx)
	if err != nil {
		return err
	}
	resp.Changed = result.Changed
	resp.OldHead = result.OldHead
	resp.NewHead = result.NewHead
	s.log().Info("manual sync completed",
		logging.String(logging.FieldEventType, "manual_sync"),
		logging.Bool("changed", result.Changed))
	return nil
}

func (s *service) Recommend(req RecommendRequest, resp *RecommendResponse) error {
	s.log().Debug("manual recommendation requested", logging.Bool("force", req.Force))
	summary := s.daemon.RecommendNow(s.ctx, req.Force)
	resp.RunID = summary.RunID
	resp.Outcome = string(summary.Outcome)
	resp.Message = summary.Message
	resp.TeamsUpdated = summary.TeamsUpdated
	for _, result := range summary.Results {
		resp.Results = append(resp.Results, TeamOutcome{
			Team:    result.Team,
			Updated: result.Updated,
			Reason:  result.Reason,
			Name:    result.Name,
			Tagline: result.Tagline,
		})
	}
	s.log().Info("manual recommendation completed",
		logging.String(logging.FieldEventType, "manual_recommendation"),
		logging.String("outcome", string(summary.Outcome)),
		logging.Int("teams_updated", summary.TeamsUpdated))
	return nil
}

func (s *service) Runs(req RunsRequest, resp *RunsResponse) error {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	records, err := s.daemon.RecentRuns(s.ctx, limit)
	if err != nil {
		return err
	}
	resp.Runs = make([]RunRecord, 0, len(records))
	for _, record := range records {
		resp.Runs = append(resp.Runs, convertRecord(record))
	}
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Info("daemon stop requested via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	resp.Stopped = true
	if s.shutdown != nil {
		// Deferred so the RPC response reaches the client first.
		go s.shutdown()
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
