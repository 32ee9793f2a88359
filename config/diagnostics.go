package config

import (
	"errors"
	"net"
)

// DiagnosticsConfig 诊断服务配置
type DiagnosticsConfig struct {
	// EnableIntrospect 启用自省服务
	EnableIntrospect bool `json:"enable_introspect" yaml:"enable_introspect"`

	// IntrospectAddr 自省服务监听地址
	// 默认 "127.0.0.1:6061"
	IntrospectAddr string `json:"introspect_addr" yaml:"introspect_addr"`
}

// DefaultDiagnosticsConfig 返回默认诊断配置
func DefaultDiagnosticsConfig() DiagnosticsConfig {
	return DiagnosticsConfig{
		EnableIntrospect: false, // 默认禁用
		IntrospectAddr:   "127.0.0.1:6061",
	}
}

// Validate 验证诊断配置
func (c DiagnosticsConfig) Validate() error {
	if !c.EnableIntrospect {
		return nil
	}
	if c.IntrospectAddr == "" {
		return errors.New("introspect address is required when introspect is enabled")
	}
	if _, _, err := net.SplitHostPort(c.IntrospectAddr); err != nil {
		return errors.New("introspect address must be host:port")
	}
	return nil
}

// WithIntrospect 启用自省服务并设置地址
func (c DiagnosticsConfig) WithIntrospect(addr string) DiagnosticsConfig {
	c.EnableIntrospect = true
	if addr != "" {
		c.IntrospectAddr = addr
	}
	return c
}
