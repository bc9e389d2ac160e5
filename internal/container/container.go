package container

import (
	"time"

	"applicant-api-io/api/internal/auth"
	"applicant-api-io/api/internal/common"
	"applicant-api-io/api/internal/events"
	"applicant-api-io/api/pkg/controllers"
	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/notify"
	"applicant-api-io/api/pkg/services"
	"applicant-api-io/api/pkg/storage"
	"applicant-api-io/api/pkg/store"
	"applicant-api-io/api/pkg/util"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies are the adapters the services run on.
type Dependencies struct {
	Profiles     store.ProfileStore
	Applications store.ApplicationStore
	Cooldowns    store.CooldownStore
	Users        store.UserStore
	Admins       store.AdminStore
	OTPs         store.OTPStore
	Tx           store.Transactor

	Files     storage.FileStorage
	Queue     storage.Enqueuer
	Publisher events.Publisher
	Blacklist auth.Blacklist
	Mailer    notify.Mailer
	SMS       notify.SMSSender
	Numbers   *snowflake.Node
	Now       services.Clock
}

type Settings struct {
	Secret         string
	AccessTokenTTL time.Duration
	AdminTokenTTL  time.Duration
	AppBaseURL     string
	Required       []models.Artifact
	BcryptCost     int
}

// SettingsFromConfig resolves Settings, parsing the configured
// post-approval artifacts.
func SettingsFromConfig(cfg *util.Config) (Settings, error) {
	required := models.DefaultRequiredArtifacts
	if len(cfg.AdditionalInfo) > 0 {
		required = make([]models.Artifact, 0, len(cfg.AdditionalInfo))
		for _, name := range cfg.AdditionalInfo {
			artifact, err := models.ParseArtifact(name)
			if err != nil {
				return Settings{}, errors.Wrap(err, "ADDITIONAL_INFO_REQUIRED")
			}
			required = append(required, artifact)
		}
	}

	return Settings{
		Secret:         cfg.Secret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		AdminTokenTTL:  cfg.AdminTokenTTL,
		AppBaseURL:     cfg.AppBaseURL,
		Required:       required,
		BcryptCost:     common.BCRYPT_COST,
	}, nil
}

// ProductionDependencies backs every store with MongoDB and Redis and
// every side effect with the real gateways.
func ProductionDependencies(cfg *util.Config, client *mongo.Client, rdb *redis.Client, queue storage.Enqueuer) (Dependencies, error) {
	db := client.Database(cfg.DatabaseName)

	files, err := storage.NewCloudinaryStorage(cfg.Cloudinary)
	if err != nil {
		return Dependencies{}, errors.Wrap(err, "cloudinary")
	}

	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		return Dependencies{}, errors.Wrap(err, "snowflake node")
	}

	return Dependencies{
		Profiles:     store.NewMongoProfileStore(db, common.ProfileCollection),
		Applications: store.NewMongoApplicationStore(db, common.ApplicationCollection, common.ProfileCollection),
		Cooldowns:    store.NewMongoCooldownStore(db, common.ApplicationCooldownCollection),
		Users:        store.NewMongoUserStore(db, common.UserCollection),
		Admins:       store.NewMongoAdminStore(db, common.AdminCollection),
		OTPs:         store.NewRedisOTPStore(rdb),
		Tx:           store.NewMongoTransactor(client),

		Files:     files,
		Queue:     queue,
		Publisher: events.NewRedisPublisher(rdb),
		Blacklist: auth.NewRedisBlacklist(rdb),
		Mailer:    notify.NewMailer(cfg.SMTP),
		SMS:       notify.NewSMSSender(cfg.SMS),
		Numbers:   node,
	}, nil
}

type ServiceContainer struct {
	Tokens    *auth.Tokens
	Blacklist auth.Blacklist

	OTPService         services.OTPService
	ProfileService     services.ProfileService
	ApplicationService services.ApplicationService
	DashboardService   services.DashboardService
	AdminService       services.AdminService

	AuthController        *controllers.AuthController
	ProfileController     *controllers.ProfileController
	ApplicationController *controllers.ApplicationController
	DashboardController   *controllers.DashboardController
	AdminController       *controllers.AdminController
}

func NewServiceContainer(deps Dependencies, settings Settings) *ServiceContainer {
	tokens := auth.NewTokens(settings.Secret, settings.AccessTokenTTL, settings.AdminTokenTTL)
	if deps.Now != nil {
		tokens.Now = deps.Now
	}

	dispatcher := notify.NewDispatcher(deps.Mailer, deps.SMS, deps.Queue)
	cleanup := storage.NewDeferred(deps.Files, deps.Queue)

	otpService := services.NewOTPService(deps.OTPs, deps.Users, tokens, deps.Blacklist, dispatcher, deps.Now)
	profileService := services.NewProfileService(deps.Profiles, deps.Applications, deps.Cooldowns, deps.Files, cleanup, deps.Publisher, settings.Required, deps.Now)
	applicationService := services.NewApplicationService(deps.Profiles, deps.Applications, deps.Cooldowns, deps.Tx, deps.Numbers, deps.Publisher, dispatcher, deps.Now)
	dashboardService := services.NewDashboardService(deps.Applications)
	adminService := services.NewAdminService(deps.Admins, tokens, dispatcher, settings.AppBaseURL, settings.BcryptCost, deps.Now)

	return &ServiceContainer{
		Tokens:    tokens,
		Blacklist: deps.Blacklist,

		OTPService:         otpService,
		ProfileService:     profileService,
		ApplicationService: applicationService,
		DashboardService:   dashboardService,
		AdminService:       adminService,

		AuthController:        controllers.InitAuthController(otpService),
		ProfileController:     controllers.InitProfileController(profileService),
		ApplicationController: controllers.InitApplicationController(applicationService),
		DashboardController:   controllers.InitDashboardController(dashboardService),
		AdminController:       controllers.InitAdminController(adminService),
	}
}
