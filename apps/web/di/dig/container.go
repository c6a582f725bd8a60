package dig_container

import (
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoweb "github.com/RTBS-ISP/UniPlus-sub000/apps/web/echo"
	"github.com/RTBS-ISP/UniPlus-sub000/core"
	logsvc "github.com/RTBS-ISP/UniPlus-sub000/services/logger"
	"github.com/RTBS-ISP/UniPlus-sub000/storage/restapi"
)

// APILoggerParam is the logger of the outgoing UniPlus API calls.
type APILoggerParam struct {
	dig.In
	Logger core.Logger `name:"apiLogger"`
}

type serverParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	Backend    echoweb.Backend
	Validate   *validator.Validate
	Translator ut.Translator
}

func newRollbarLogger(conf *core.Config) *logsvc.RollbarLogger {
	stdLogger := log.New(os.Stdout, "WEB : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newLogger(l *logsvc.RollbarLogger) core.Logger {
	return l
}

func newAPILogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newAPIClient(conf *core.Config, loggerParam APILoggerParam) (*restapi.Client, error) {
	return restapi.NewClient(restapi.Options{
		BaseURL:   conf.API.BaseURL,
		Timeout:   conf.API.Timeout,
		UserAgent: conf.API.UserAgent,
		Logger:    loggerParam.Logger,
	})
}

func newServer(p serverParams) *echoweb.Server {
	return echoweb.NewServer(
		echoweb.Options{
			Address:        p.Conf.Server.Host,
			Debug:          p.Conf.Debug,
			TestMode:       p.Conf.TestMode,
			AllowedOrigins: p.Conf.Server.AllowedOrigins,
			PageSize:       p.Conf.Query.PageSize,
		},
		echoweb.Deps{
			Backend:    p.Backend,
			Logger:     p.Logger,
			Validate:   p.Validate,
			Translator: p.Translator,
		},
	)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newRollbarLogger))
	must(c.Provide(newLogger))
	must(c.Provide(newAPILogger, dig.Name("apiLogger")))
	must(c.Provide(newAPIClient))
	must(c.Provide(echoweb.NewRESTBackend))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
