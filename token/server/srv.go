package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/token-overlay/tokend/constants"
	"github.com/token-overlay/tokend/internal/sentry"
	"github.com/token-overlay/tokend/internal/signal"
	"github.com/token-overlay/tokend/token/index"
	"github.com/token-overlay/tokend/token/index/dao"
	"github.com/token-overlay/tokend/token/index/memory"
	"github.com/token-overlay/tokend/token/index/tables"
	"github.com/token-overlay/tokend/token/log"
	"github.com/token-overlay/tokend/token/server/handle"
)

var (
	srvOptions = &SrvOptions{}

	mainNetRPCListen = ":8335"
	testNetRPCListen = ":18335"
)

// SrvOptions is a struct that holds the configuration options for the server.
type SrvOptions struct {
	configFile  string
	Testnet     bool   `yaml:"testnet"`
	RpcListen   string `yaml:"rpc_listen"`
	StoreEngine string `yaml:"store"`
	Mysql       struct {
		Addr     string `yaml:"addr"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		DB       string `yaml:"db"`
	} `yaml:"mysql"`
	EnablePProf bool   `yaml:"pprof"`
	SentryDsn   string `yaml:"sentry_dsn"`
}

// SrvOption is a function type that sets a field of the SrvOptions struct.
type SrvOption func(*SrvOptions)

// WithTestNet returns a SrvOption that sets the testnet flag.
func WithTestNet(testnet bool) SrvOption {
	return func(options *SrvOptions) {
		options.Testnet = testnet
	}
}

// WithRpcListen returns a SrvOption that sets the server listen address.
func WithRpcListen(rpcListen string) SrvOption {
	return func(options *SrvOptions) {
		options.RpcListen = rpcListen
	}
}

// WithStoreEngine returns a SrvOption that selects the index store engine.
func WithStoreEngine(engine string) SrvOption {
	return func(options *SrvOptions) {
		options.StoreEngine = engine
	}
}

// WithMysqlAddr returns a SrvOption that sets the index database address.
func WithMysqlAddr(mysqlAddr string) SrvOption {
	return func(options *SrvOptions) {
		options.Mysql.Addr = mysqlAddr
	}
}

// WithMysqlUser returns a SrvOption that sets the index database user.
func WithMysqlUser(mysqlUser string) SrvOption {
	return func(options *SrvOptions) {
		options.Mysql.User = mysqlUser
	}
}

// WithMysqlPassword returns a SrvOption that sets the index database password.
func WithMysqlPassword(mysqlPassword string) SrvOption {
	return func(options *SrvOptions) {
		options.Mysql.Password = mysqlPassword
	}
}

// WithMysqlDBName returns a SrvOption that sets the index database name.
func WithMysqlDBName(mysqlDBName string) SrvOption {
	return func(options *SrvOptions) {
		options.Mysql.DB = mysqlDBName
	}
}

// WithEnablePProf returns a SrvOption that enables the pprof endpoints.
func WithEnablePProf(enablePProf bool) SrvOption {
	return func(options *SrvOptions) {
		options.EnablePProf = enablePProf
	}
}

var Cmd = &cobra.Command{
	Use:   "indexer",
	Short: "token overlay topic manager and lookup index server",
	Run: func(cmd *cobra.Command, args []string) {
		if err := IndexSrv(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		<-signal.InterruptHandlersDone
	},
}

func init() {
	Cmd.Flags().StringVarP(&srvOptions.configFile, "config", "c", "", "config file path")
	Cmd.Flags().BoolVarP(&srvOptions.Testnet, "testnet", "t", false, "bitcoin testnet3")
	Cmd.Flags().StringVarP(&srvOptions.RpcListen, "rpc_listen", "l", "", "server listen address. Default `mainnet :8335, testnet :18335`")
	Cmd.Flags().StringVarP(&srvOptions.StoreEngine, "store", "", "mysql", "index store engine, mysql or memory")
	Cmd.Flags().StringVarP(&srvOptions.Mysql.Addr, "mysql_addr", "d", "", "token index mysql database addr")
	Cmd.Flags().StringVarP(&srvOptions.Mysql.User, "mysql_user", "", constants.DefaultDBUser, "token index mysql database user")
	Cmd.Flags().StringVarP(&srvOptions.Mysql.Password, "mysql_pass", "", constants.DefaultDBPass, "token index mysql database password")
	Cmd.Flags().StringVarP(&srvOptions.Mysql.DB, "db", "", "", "token index mysql database name")
	Cmd.Flags().BoolVarP(&srvOptions.EnablePProf, "pprof", "", false, "enable pprof")
	Cmd.Flags().StringVarP(&srvOptions.SentryDsn, "sentry_dsn", "", "", "sentry dsn for panic reporting")
}

// IndexSrv assembles the store, lookup service, admission validator and http
// surface from the server options and starts them.
func IndexSrv(opts ...SrvOption) error {
	if srvOptions.configFile != "" {
		configFile, err := os.Open(srvOptions.configFile)
		if err != nil {
			return err
		}
		defer configFile.Close()
		if err := yaml.NewDecoder(configFile).Decode(srvOptions); err != nil {
			return err
		}
	}

	for _, v := range opts {
		v(srvOptions)
	}

	if srvOptions.Mysql.DB == "" {
		srvOptions.Mysql.DB = constants.DefaultDBName
	}
	if srvOptions.Mysql.Addr == "" {
		srvOptions.Mysql.Addr = "127.0.0.1:3306"
	}
	if srvOptions.RpcListen == "" {
		srvOptions.RpcListen = mainNetRPCListen
		if srvOptions.Testnet {
			srvOptions.RpcListen = testNetRPCListen
		}
	}

	// Initialize log rotation. After log rotation has been initialized, the
	// logger variables may be used.
	logDir := filepath.Join(constants.AppName, "logs", "index.log")
	logFile := btcutil.AppDataDir(logDir, false)
	log.InitLogRotator(logFile)

	if err := sentry.Init(srvOptions.SentryDsn); err != nil {
		return err
	}

	var store index.Store
	switch srvOptions.StoreEngine {
	case "memory":
		store = memory.New()
	default:
		db, err := dao.NewDB(
			dao.WithAddr(srvOptions.Mysql.Addr),
			dao.WithUser(srvOptions.Mysql.User),
			dao.WithPassword(srvOptions.Mysql.Password),
			dao.WithDBName(srvOptions.Mysql.DB),
			dao.WithAutoMigrateTables(tables.Tables...),
		)
		if err != nil {
			return err
		}
		store = db
	}

	h, err := handle.New(
		handle.WithAddr(srvOptions.RpcListen),
		handle.WithTestNet(srvOptions.Testnet),
		handle.WithEnablePProf(srvOptions.EnablePProf),
		handle.WithStore(store),
	)
	if err != nil {
		return err
	}

	go func() {
		defer sentry.RecoverPanic()
		if err := h.Run(); err != nil {
			log.Srv.Error(err)
			signal.SimulateInterrupt()
		}
	}()
	return nil
}
