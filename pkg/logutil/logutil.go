package logutil

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// LogLevel 日志级别，同时实现 pflag.Value，可以直接绑定到命令行
type LogLevel int

// 定义日志级别
const (
	DEBUG LogLevel = iota // 0
	INFO                  // 1
	WARN                  // 2
	ERROR                 // 3
)

// 定义日志级别映射字符串
var LOG_LEVELS = map[string]LogLevel{
	"DEBUG": DEBUG,
	"INFO":  INFO,
	"WARN":  WARN,
	"ERROR": ERROR,
}

var (
	logger       *log.Logger
	logFile      *os.File
	once         sync.Once
	mu           sync.Mutex
	currentLevel = WARN // 默认日志级别
)

// ParseLogLevel 不区分大小写解析日志级别
func ParseLogLevel(s string) (LogLevel, error) {
	if level, ok := LOG_LEVELS[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return level, nil
	}
	return WARN, fmt.Errorf("无效的日志等级: %q (可选 DEBUG/INFO/WARN/ERROR)", s)
}

func (l *LogLevel) String() string {
	for name, v := range LOG_LEVELS {
		if v == *l {
			return name
		}
	}
	return "WARN"
}

func (l *LogLevel) Set(val string) error {
	level, err := ParseLogLevel(val)
	if err != nil {
		return err
	}
	*l = level
	return nil
}

func (l *LogLevel) Type() string {
	return "loglevel"
}

// InitLogger 初始化日志，output 可以是 stdout、stderr 或者文件路径
// 只有第一次调用生效
func InitLogger(output string, level LogLevel) {
	once.Do(func() {
		var w io.Writer
		switch output {
		case "", "stderr":
			w = os.Stderr
		case "stdout":
			w = os.Stdout
		default:
			f, err := os.OpenFile(
				// 以追加模式打开日志文件，不会覆盖已有内容
				output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				log.Fatal("无法创建日志文件:", err)
			}
			logFile = f
			w = f
		}
		mu.Lock()
		logger = log.New(w, "", log.LstdFlags)
		currentLevel = level
		mu.Unlock()
	})
}

// SetOutput 替换日志输出目标，测试里用来捕获日志
func SetOutput(w io.Writer) {
	once.Do(func() {})
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, "", 0)
}

// 设置日志级别
func SetLogLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
}

// logMessage 只输出不低于当前级别的日志
func logMessage(level LogLevel, msg string, args ...any) {
	if logger == nil {
		InitLogger("stderr", WARN)
	}
	mu.Lock()
	defer mu.Unlock()
	if level < currentLevel {
		return
	}
	_, file, line, _ := runtime.Caller(2) // 获取真正调用的文件+行号

	formattedArgs := make([]any, 0, len(args))
	for _, arg := range args {
		formattedArgs = append(formattedArgs, formatArg(arg))
	}
	logger.Printf("[%s:%d] %s", filepath.Base(file), line, fmt.Sprintf(msg, formattedArgs...))
}

// formatArg 结构体按字段展开，集合类型转成 JSON，error 和 Stringer 原样返回
func formatArg(arg any) any {
	switch arg.(type) {
	case error, fmt.Stringer:
		return arg
	}
	v := reflect.ValueOf(arg)
	if v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		return fmt.Sprintf("%+v", v.Interface())
	case reflect.Slice, reflect.Map:
		data, err := json.Marshal(arg)
		if err != nil {
			return fmt.Sprintf("无法格式化: %v", err)
		}
		return string(data)
	default:
		return arg
	}
}

// Debug 记录 DEBUG 日志
func Debug(msg string, args ...any) {
	logMessage(DEBUG, "[DBG] "+msg, args...)
}

// Info 记录 INFO 日志
func Info(msg string, args ...any) {
	logMessage(INFO, "[INFO] "+msg, args...)
}

// Warn 记录 WARN 日志
func Warn(msg string, args ...any) {
	logMessage(WARN, "[WARN] "+msg, args...)
}

// Error 记录 ERROR 日志
func Error(msg string, args ...any) {
	logMessage(ERROR, "[ERR] "+msg, args...)
}

// 关闭日志文件（如果有的话）
func CloseLogger() error {
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}
