package validator

import (
	"net"
	"strings"
)

// IsValidIP 验证 IP 地址格式（支持 IPv4 和 IPv6）
func IsValidIP(ip string) bool {
	if ip == "" {
		return false
	}
	return net.ParseIP(NormalizeIP(ip)) != nil
}

// NormalizeIP 移除 IPv6 的 zone identifier (例如 fe80::1%eth0 -> fe80::1)
func NormalizeIP(ip string) string {
	if idx := strings.IndexByte(ip, '%'); idx != -1 {
		return ip[:idx]
	}
	return ip
}

// CanonicalIP 返回 IP 的规范形式，用作限流等场景的计数 key。
// IPv4-mapped 地址 (::ffff:10.0.0.1) 与对应的 IPv4 地址视为同一客户端，
// 无法解析时返回 fallback
func CanonicalIP(ip, fallback string) string {
	parsed := net.ParseIP(NormalizeIP(strings.TrimSpace(ip)))
	if parsed == nil {
		return fallback
	}
	if v4 := parsed.To4(); v4 != nil {
		return v4.String()
	}
	return parsed.String()
}
