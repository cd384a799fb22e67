package reminder

import (
	"entitlement-controlplane/pkg/taskname"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("reminder.module",
	fx.Provide(NewService),
)

var ServerModule = fx.Module("reminder.server",
	Module,
	fx.Provide(NewHandler),
	fx.Invoke(registerRoutes),
)

// WorkerModule handles scan tasks and runs the daily scheduler that enqueues them.
var WorkerModule = fx.Module("reminder.worker",
	Module,
	fx.Provide(NewTaskHandler, NewScheduler),
	fx.Invoke(registerTaskHandlers, StartScheduler),
)

func registerRoutes(r *gin.Engine, h *Handler) {
	h.RegisterRoutes(r)
}

func registerTaskHandlers(mux *asynq.ServeMux, h *TaskHandler) {
	mux.HandleFunc(taskname.LicenseReminderScan, h.HandleScanTask)
}
