package app

import (
	"fmt"

	"github.com/yungbote/neurobridge-credentials/internal/modules/certification/completion"
	"github.com/yungbote/neurobridge-credentials/internal/modules/certification/coordinator"
	"github.com/yungbote/neurobridge-credentials/internal/modules/certification/delivery"
	"github.com/yungbote/neurobridge-credentials/internal/modules/certification/render"
	"github.com/yungbote/neurobridge-credentials/internal/observability"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
	"github.com/yungbote/neurobridge-credentials/internal/services"
)

type Services struct {
	Auth         services.AuthService
	Entitlement  services.EntitlementService
	Directory    services.DirectoryService
	Verification services.VerificationService
	Credential   services.CredentialService

	Completion  *completion.Evaluator
	Coordinator *coordinator.Coordinator
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	directory := services.NewDirectoryService(log, reposet.User, reposet.Course, reposet.Path)
	entitlement := services.NewEntitlementService(log, reposet.Enrollment, reposet.Path)
	evaluator := completion.NewEvaluator(log, reposet.Course, reposet.Lesson, reposet.LessonProgress, reposet.Path)

	renderer, err := render.NewRenderer(cfg.Branding)
	if err != nil {
		return Services{}, fmt.Errorf("init renderer: %w", err)
	}

	notifier := delivery.NewMultiNotifier(log)
	if clients.Email != nil {
		notifier.Add("email", delivery.NewEmailNotifier(log, clients.Email))
	}
	if clients.EventBus != nil {
		notifier.Add("events", delivery.NewEventNotifier(clients.EventBus))
	}

	var coordMetrics *observability.CoordinatorMetrics
	if metrics != nil {
		coordMetrics, err = observability.NewCoordinatorMetrics(metrics.Provider)
		if err != nil {
			return Services{}, fmt.Errorf("init coordinator metrics: %w", err)
		}
	}

	deps := coordinator.Deps{
		Completion:  evaluator,
		Entitlement: entitlement,
		Credentials: reposet.Credential,
		Renderer:    renderer,
		Directory:   directory,
		Artifacts:   delivery.NewBucketStore(log, clients.Bucket, render.ContentType),
		Metrics:     coordMetrics,
		Tracer:      observability.Tracer(),
	}
	if notifier.Len() > 0 {
		deps.Notifier = notifier
	}
	coord, err := coordinator.New(log, cfg.Coordinator, deps)
	if err != nil {
		return Services{}, fmt.Errorf("init coordinator: %w", err)
	}

	return Services{
		Auth:         services.NewAuthService(log, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Entitlement:  entitlement,
		Directory:    directory,
		Verification: services.NewVerificationService(log, reposet.Credential, directory),
		Credential:   services.NewCredentialService(log, reposet.Credential, directory),
		Completion:   evaluator,
		Coordinator:  coord,
	}, nil
}
