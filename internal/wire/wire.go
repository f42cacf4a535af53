package wire

import (
	"SetMatch/internal/api"
	"SetMatch/internal/api/config"
	"SetMatch/internal/api/handler"
	"SetMatch/internal/api/middleware"
	"SetMatch/internal/job"
	"SetMatch/internal/pkg/consts"
	"SetMatch/internal/pkg/cron"
	"SetMatch/internal/pkg/kafka"
	"SetMatch/internal/pkg/logger"
	"SetMatch/internal/pkg/mongo"
	"SetMatch/internal/pkg/realtime"
	"SetMatch/internal/pkg/redis"
	"SetMatch/internal/repository"
	"SetMatch/internal/service"
	log "log/slog"
	"time"

	"github.com/gin-gonic/gin"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

const displayNameTTL = 10 * time.Minute

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	Hub          *realtime.RedisHub
	KafkaManager *kafka.ConsumerManager
	MirrorQueue  *kafka.MirrorRepairProducer
	CronMgr      *cron.Manager
}

func BuildApplication(db *gorm.DB, mongoDB *mongodrv.Database, cfg *config.Config) (*ApplicationContainer, error) {
	// 用户目录 (MySQL)
	userRepo := repository.NewUserRepo(db)
	friendshipRepo := repository.NewFriendshipRepo(db)

	// 通知 / 好友申请 / 报价历史 (Mongo)
	notificationRepo := mongo.NewNotificationRepo(mongoDB)
	friendRequestRepo := mongo.NewFriendRequestRepo(mongoDB)
	offerRepo := mongo.NewOfferRepo(mongoDB)
	transactor := mongo.NewTransactor(mongoDB)

	timeouts := service.TimeoutsFromConfig(cfg.Timeouts)
	hub := realtime.NewRedisHub(cfg.Realtime.ChannelPrefix)
	directory := service.NewUserDirectory(
		userRepo,
		friendshipRepo,
		redis.NewStringCache(consts.UserDisplayNameKey, displayNameTTL),
		timeouts,
	)

	// 镜像补偿队列，关闭时仅依赖定时对账
	var queue service.MirrorQueue
	var producer *kafka.MirrorRepairProducer
	if cfg.Negotiation.MirrorRepair {
		p, err := kafka.NewMirrorRepairProducer(cfg)
		if err != nil {
			return nil, err
		}
		producer, queue = p, p
	}

	opts := service.NegotiationOptions{
		PairedUpdate: cfg.Negotiation.PairedUpdate,
		Timeouts:     timeouts,
	}
	log.Info("negotiation configured", "paired_update", opts.PairedUpdate, "mirror_repair", cfg.Negotiation.MirrorRepair)

	resolver := service.NewCounterpartResolver(notificationRepo)
	negotiationSvc := service.NewNegotiationService(notificationRepo, friendRequestRepo, resolver, directory, hub, transactor, queue, opts)
	notificationSvc := service.NewNotificationService(notificationRepo, directory, hub, timeouts)
	offerSvc := service.NewOfferService(notificationRepo, offerRepo, directory, hub, transactor, opts)
	friendRequestSvc := service.NewFriendRequestService(friendRequestRepo, notificationRepo, negotiationSvc, directory, hub, transactor, opts)

	handlers := &api.HandlersGroup{
		NotificationHandler:  handler.NewNotificationHandler(notificationSvc, negotiationSvc),
		OfferHandler:         handler.NewOfferHandler(offerSvc),
		FriendRequestHandler: handler.NewFriendRequestHandler(friendRequestSvc),
		AdminHandler:         handler.NewAdminHandler(negotiationSvc),
		WSHandler:            handler.NewWsHandler(hub, cfg.Realtime),
		Blacklist:            middleware.NewRedisBlacklist(),
		SlowThreshold:        logger.SlowThreshold(),
	}
	router := api.SetupRouter(handlers)

	var kafkaMgr *kafka.ConsumerManager
	if cfg.Negotiation.MirrorRepair {
		mgr, err := kafka.NewConsumerManager(cfg, negotiationSvc)
		if err != nil {
			return nil, err
		}
		kafkaMgr = mgr
	}

	reconcileJob := job.NewMirrorReconcileJob(negotiationSvc, cfg.Cron.ReconcileLookbackMinutes)
	cronMgr := cron.NewCronManager(cfg.Cron.ReconcileSpec, reconcileJob)

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		Hub:          hub,
		KafkaManager: kafkaMgr,
		MirrorQueue:  producer,
		CronMgr:      cronMgr,
	}, nil
}
