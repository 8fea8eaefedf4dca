package wal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
)

// 自己定義常用的權限常量
const (
	// rw-r--r-- (擁有者讀寫，其他人唯讀) - 適用於大多數檔案
	FileModeReadOnly fs.FileMode = 0644

	// rw------- (只有擁有者可讀寫) - 適用於私鑰、機密檔
	FileModePrivate fs.FileMode = 0600
)

// ErrClosed WAL 已關閉
var ErrClosed = errors.New("wal: closed")

// WAL 以 JSON Lines 格式追加寫入的 Write-Ahead Log
type WAL struct {
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
	closed bool
	// offset 最後一次成功 Flush 後的檔案長度，Flush 失敗時截回這裡
	offset int64
	log    *slog.Logger
}

// Option 設定 WAL 的選項
type Option func(*WAL)

// WithLogger 指定修復尾端殘缺紀錄時使用的 logger，預設 slog.Default()
func WithLogger(log *slog.Logger) Option {
	return func(w *WAL) {
		w.log = log
	}
}

// NewWAL 開啟或建立一個 WAL 檔案
// O_RDWR讀寫模式
// O_APPEND 每次寫入時自動跳到文件末尾
// O_CREATE 如果文件不存在則建立
func NewWAL(path string, opts ...Option) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileModeReadOnly)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	w := &WAL{
		file:   file,
		writer: bufio.NewWriter(file),
		offset: info.Size(),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Write 寫入一筆資料到緩衝區，呼叫 Flush 後才保證落盤
func (w *WAL) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return json.NewEncoder(w.writer).Encode(v)
}

// Flush 把緩衝區寫入檔案並強制刷入硬碟 (關鍵！)
func (w *WAL) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.flushLocked()
}

// flushLocked 失敗時丟棄緩衝區並把檔案截回上一個完整的位置，
// 被拒絕的紀錄不會在重放時復活
func (w *WAL) flushLocked() error {
	pending := int64(w.writer.Buffered())
	err := w.writer.Flush()
	if err == nil {
		err = w.file.Sync()
	}
	if err != nil {
		w.writer.Reset(w.file)
		if truncErr := w.file.Truncate(w.offset); truncErr != nil {
			return errors.Join(err, fmt.Errorf("wal: rollback to offset %d: %w", w.offset, truncErr))
		}
		return err
	}
	w.offset += pending
	return nil
}

// Close 刷入剩餘資料後關閉檔案
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	flushErr := w.flushLocked()
	closeErr := w.file.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// ReadAll 讀取所有資料
// callback 接收一筆原始 JSON，避免一次將所有資料載入記憶體
func (w *WAL) ReadAll(callback func(jsonRaw []byte) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}

	// 尚未落盤的資料也要讀到
	if err := w.flushLocked(); err != nil {
		return err
	}
	// 確保從頭讀取 (O_APPEND 不影響之後的寫入位置)
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	decoder := json.NewDecoder(w.file)
	var good int64
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				// 寫入途中當機留下的殘缺尾端，截掉後繼續使用
				return w.truncateTailLocked(good)
			}
			return err
		}
		good = decoder.InputOffset()
		if err := callback(raw); err != nil {
			return err
		}
	}
	return nil
}

func (w *WAL) truncateTailLocked(good int64) error {
	w.log.Warn("wal: dropping torn trailing record",
		slog.String("path", w.file.Name()),
		slog.Int64("offset", good),
		slog.Int64("dropped_bytes", w.offset-good),
	)
	if err := w.file.Truncate(good); err != nil {
		return fmt.Errorf("wal: truncate torn record: %w", err)
	}
	w.offset = good
	return nil
}

// Replay 依序解碼每一筆紀錄為 T 並交給 fn
func Replay[T any](w *WAL, fn func(rec T) error) error {
	return w.ReadAll(func(jsonRaw []byte) error {
		var rec T
		if err := json.Unmarshal(jsonRaw, &rec); err != nil {
			return err
		}
		return fn(rec)
	})
}
