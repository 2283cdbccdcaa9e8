package app

import (
	"github.com/google/wire"
)

// ProviderSet 框架层的 Wire Provider
var ProviderSet = wire.NewSet(
	NewBaseApp,
)

// AppComponents 收集注入器装配出的全部组件
type AppComponents struct {
	Servers []Server
	Closers []Closer
}

// InitApp 把装配好的组件绑定到 BaseApp，作为注入器的出口
func InitApp(app *BaseApp, comps AppComponents) Application {
	app.AppendServer(comps.Servers...)
	app.AppendCloser(comps.Closers...)
	return app
}

// MapCloser 把任意带 Close() error 的对象适配为 Closer
func MapCloser(c interface{ Close() error }) Closer {
	return closerWrapper{c}
}

type closerWrapper struct {
	obj interface{ Close() error }
}

func (w closerWrapper) Close() error {
	return w.obj.Close()
}
