package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trello-project/microservices/assignment-service/config"
	"trello-project/microservices/assignment-service/handlers"
	"trello-project/microservices/assignment-service/logging"
	"trello-project/microservices/assignment-service/repositories"
	"trello-project/microservices/assignment-service/services"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load(".env", logging.Logger)
	if err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: %v", err)
	}

	logging.InitLogger(cfg.LogFile, cfg.LogLevel)
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Assignment Service...")

	var (
		tasks repositories.TaskStore
		users repositories.UserStore
	)

	var mongoClient *mongo.Client
	switch cfg.StoreBackend {
	case config.BackendMemory:
		tasks = repositories.NewMemoryTaskRepo()
		users = repositories.NewMemoryUserRepo()
		logging.Logger.Warn("Event ID: STORE_IN_MEMORY, Description: Using in-memory stores, data will not survive a restart.")
	default:
		mongoClient, tasks, users = connectMongo(cfg)
	}

	var (
		notifications repositories.NotificationStore
		cassandra     *repositories.NotificationRepo
	)
	if cfg.CassandraHosts != "" {
		repo, err := repositories.NewNotificationRepo(cfg.CassandraHosts, logging.Logger)
		if err != nil {
			logging.Logger.Fatalf("Event ID: CASSANDRA_INIT_FAILED, Description: Failed to initialize notification repository: %v", err)
		}
		if err := repo.CreateTable(); err != nil {
			repo.CloseSession()
			logging.Logger.Fatalf("Event ID: CASSANDRA_TABLE_FAILED, Description: %v", err)
		}
		cassandra = repo
		notifications = repo
	} else {
		notifications = repositories.NewMemoryNotificationRepo()
		logging.Logger.Info("Event ID: NOTIFICATIONS_IN_MEMORY, Description: CASS_DB not set, keeping notifications in memory.")
	}

	coordinator := services.NewCoordinator(tasks, users, notifications, services.Options{
		CascadeTimeout: cfg.CascadeTimeout,
		Logger:         logging.Logger,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           handlers.NewRouter(coordinator, cfg.CORSOrigin),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logging.Logger.Info("Event ID: SERVICE_STOPPING, Description: Shutting down Assignment Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_ERROR, Description: %v", err)
	}
	coordinator.Wait()

	if cassandra != nil {
		cassandra.CloseSession()
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(ctx); err != nil {
			logging.Logger.Errorf("Event ID: DB_DISCONNECT_FAILED, Description: %v", err)
		}
	}
	logging.Logger.Info("Event ID: SERVICE_STOPPED, Description: Assignment Service stopped.")
}

func connectMongo(cfg *config.Config) (*mongo.Client, repositories.TaskStore, repositories.UserStore) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", cfg.MongoURI)

	db := client.Database(cfg.MongoDBName)
	tasks := repositories.NewTaskRepo(db.Collection(cfg.TasksCollection))
	users := repositories.NewUserRepo(db.Collection(cfg.UsersCollection))

	if err := tasks.EnsureIndexes(ctx); err != nil {
		logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: Failed to create task indexes: %v", err)
	}
	if err := users.EnsureIndexes(ctx); err != nil {
		logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: Failed to create user indexes: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_COLLECTION_SET, Description: Using MongoDB collections: %s/%s, %s/%s",
		cfg.MongoDBName, cfg.TasksCollection, cfg.MongoDBName, cfg.UsersCollection)

	return client, tasks, users
}
