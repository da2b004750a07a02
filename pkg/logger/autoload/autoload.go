// Package autoload configures the global logger from the environment as a
// side effect of being imported.
package autoload

import (
	configx "github.com/krzycho/dbagent/pkg/config"
	logx "github.com/krzycho/dbagent/pkg/logger"
)

func init() {
	conf := configx.MustNew[logx.Config]("LOG")
	logx.Init(*conf)
}
