package crawlers

import (
	"fmt"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceMonitor 系统资源探测,用于决定并行下载的worker数量
type ResourceMonitor struct {
	config ResourceMonitorConfig

	// 函数字段便于测试替换
	cpuCounts     func(logical bool) (int, error)
	virtualMemory func() (*mem.VirtualMemoryStat, error)
}

// ResourceMonitorConfig 资源探测配置
type ResourceMonitorConfig struct {
	SafetyReserveMemory int64 // 保留给系统的内存(字节)
	WorkerMemoryUsage   int64 // 单个worker的估算内存占用(字节),PDF整体驻留内存
}

// DefaultResourceMonitorConfig 默认配置
func DefaultResourceMonitorConfig() ResourceMonitorConfig {
	return ResourceMonitorConfig{
		SafetyReserveMemory: 512 * 1024 * 1024,
		WorkerMemoryUsage:   64 * 1024 * 1024,
	}
}

// MemoryStatus 内存状态信息
type MemoryStatus struct {
	TotalMemory     uint64 // 系统总内存(字节)
	AvailableMemory uint64 // 系统可用内存(字节)
	AllocatedMemory uint64 // 当前程序已分配内存(字节)
	MemoryPressure  string // 内存压力等级
}

// NewResourceMonitor 创建资源探测器
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	if config.WorkerMemoryUsage <= 0 {
		config.WorkerMemoryUsage = DefaultResourceMonitorConfig().WorkerMemoryUsage
	}
	return &ResourceMonitor{
		config:        config,
		cpuCounts:     cpu.Counts,
		virtualMemory: mem.VirtualMemory,
	}
}

// CPUCount 逻辑CPU数,gopsutil失败时退回runtime.NumCPU
func (rm *ResourceMonitor) CPUCount() int {
	n, err := rm.cpuCounts(true)
	if err != nil || n < 1 {
		if err != nil {
			log.Debug().Err(err).Msg("获取CPU核数失败,使用runtime.NumCPU")
		}
		return runtime.NumCPU()
	}
	return n
}

// CalculateMaxWorkers 计算并行模式的worker数量
// 取 CPU核数、上限、可用内存允许的数量 三者的最小值,至少为1
func (rm *ResourceMonitor) CalculateMaxWorkers(limit int) int {
	result := rm.CPUCount()
	if limit > 0 && limit < result {
		result = limit
	}

	if vm, err := rm.virtualMemory(); err != nil {
		log.Warn().Err(err).Msg("获取系统内存失败,忽略内存限制")
	} else {
		available := int64(vm.Available) - rm.config.SafetyReserveMemory
		byMemory := int(available / rm.config.WorkerMemoryUsage)
		if byMemory < 1 {
			log.Warn().Msgf("可用内存不足(当前%dMB),并行度降为1", vm.Available/(1024*1024))
			byMemory = 1
		}
		if byMemory < result {
			result = byMemory
		}
	}

	if result < 1 {
		result = 1
	}
	return result
}

// GetMemoryStatus 获取当前内存状态
func (rm *ResourceMonitor) GetMemoryStatus() (MemoryStatus, error) {
	vm, err := rm.virtualMemory()
	if err != nil {
		return MemoryStatus{}, fmt.Errorf("获取系统内存失败: %w", err)
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	var pressure string
	availableMB := vm.Available / (1024 * 1024)
	switch {
	case availableMB < 200:
		pressure = "emergency"
	case availableMB < 300:
		pressure = "critical"
	case availableMB < 500:
		pressure = "warning"
	default:
		pressure = "normal"
	}

	return MemoryStatus{
		TotalMemory:     vm.Total,
		AvailableMemory: vm.Available,
		AllocatedMemory: memStats.Alloc,
		MemoryPressure:  pressure,
	}, nil
}

// LogStatus 输出资源概况
func (rm *ResourceMonitor) LogStatus() {
	status, err := rm.GetMemoryStatus()
	if err != nil {
		log.Warn().Err(err).Msg("资源状态不可用")
		return
	}
	log.Info().Msgf("💻 CPU: %d核, 内存: %.2f GB 可用 / %.2f GB 总计 (%s)",
		rm.CPUCount(),
		float64(status.AvailableMemory)/(1024*1024*1024),
		float64(status.TotalMemory)/(1024*1024*1024),
		status.MemoryPressure)
}
