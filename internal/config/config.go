package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var AppConfig Config

func InitConfig() {
	// .env is optional, env vars win either way
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("No .env file loaded: %v", err)
	}

	viper.AutomaticEnv()

	// Default config
	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("LIBP2P_PORT", 4001)
	viper.SetDefault("LIBP2P_BOOT_NODES", "")
	viper.SetDefault("ENABLE_GOSSIP", true)
	viper.SetDefault("ENABLE_TRIGGER", true)
	viper.SetDefault("ENTRY_FEE", 100)
	viper.SetDefault("ROUND_INTERVAL", "30s")
	viper.SetDefault("TRIGGER_INTERVAL", "5s")
	viper.SetDefault("VRF_COORDINATOR_URL", "http://localhost:9500")
	viper.SetDefault("VRF_KEY_HASH", "")
	viper.SetDefault("VRF_SUBSCRIPTION_ID", 1)
	viper.SetDefault("VRF_REQUEST_CONFIRMATIONS", 3)
	viper.SetDefault("VRF_CALLBACK_GAS_LIMIT", 500000)
	viper.SetDefault("VRF_NATIVE_PAYMENT", false)
	viper.SetDefault("VRF_CALLBACK_SECRET", "")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_DIR", "/app/db")

	logLevel, err := logrus.ParseLevel(strings.ToLower(viper.GetString("LOG_LEVEL")))
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}

	roundInterval := viper.GetDuration("ROUND_INTERVAL")
	if roundInterval <= 0 {
		logrus.Fatalf("Invalid round interval: %v", roundInterval)
	}

	AppConfig = Config{
		HTTPPort:          viper.GetString("HTTP_PORT"),
		Libp2pPort:        viper.GetInt("LIBP2P_PORT"),
		Libp2pBootNodes:   viper.GetString("LIBP2P_BOOT_NODES"),
		EnableGossip:      viper.GetBool("ENABLE_GOSSIP"),
		EnableTrigger:     viper.GetBool("ENABLE_TRIGGER"),
		EntryFee:          viper.GetUint64("ENTRY_FEE"),
		RoundInterval:     roundInterval,
		TriggerInterval:   viper.GetDuration("TRIGGER_INTERVAL"),
		VRFCoordinatorURL: viper.GetString("VRF_COORDINATOR_URL"),
		VRFKeyHash:        viper.GetString("VRF_KEY_HASH"),
		VRFSubscriptionID: viper.GetUint64("VRF_SUBSCRIPTION_ID"),
		VRFConfirmations:  viper.GetUint("VRF_REQUEST_CONFIRMATIONS"),
		VRFCallbackGas:    viper.GetUint32("VRF_CALLBACK_GAS_LIMIT"),
		VRFNativePayment:  viper.GetBool("VRF_NATIVE_PAYMENT"),
		VRFCallbackSecret: viper.GetString("VRF_CALLBACK_SECRET"),
		DbDir:             viper.GetString("DB_DIR"),
		LogLevel:          logLevel,
	}

	if AppConfig.EntryFee == 0 {
		logrus.Warnf("ENTRY_FEE is 0, every entry will be admitted for free")
	}

	logrus.Infof("Init config, EntryFee %d, RoundInterval %v, TriggerInterval %v, VRFCoordinator %s",
		AppConfig.EntryFee, AppConfig.RoundInterval, AppConfig.TriggerInterval, AppConfig.VRFCoordinatorURL)

	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(AppConfig.LogLevel)
}

type Config struct {
	HTTPPort          string
	Libp2pPort        int
	Libp2pBootNodes   string
	EnableGossip      bool
	EnableTrigger     bool
	EntryFee          uint64
	RoundInterval     time.Duration
	TriggerInterval   time.Duration
	VRFCoordinatorURL string
	VRFKeyHash        string
	VRFSubscriptionID uint64
	VRFConfirmations  uint
	VRFCallbackGas    uint32
	VRFNativePayment  bool
	VRFCallbackSecret string
	DbDir             string
	LogLevel          logrus.Level
}
