// Package errors はプロジェクト全体のエラー型を提供します。
// ネイティブ LightGBM 呼び出しの失敗、呼び出し前の形状チェック、
// ネイティブが返した件数の変換失敗をそれぞれ別の型として表現します。
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	ネイティブ境界のエラー型
//
// ===========================================================================

// NativeError は LightGBM の C API が -1 を返した場合のエラーです。
// Message は失敗直後に LGBM_GetLastError から複製した文字列です。
type NativeError struct {
	Op      string
	Status  int
	Message string
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("golgbm: %s: LightGBM error: %s", e.Op, e.Message)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NativeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("status", e.Status).
		Str("native_message", e.Message).
		Str("type", "NativeError")
}

// NewNativeError は新しいNativeErrorを作成し、スタックトレースを付与します。
func NewNativeError(op string, status int, message string) error {
	return errors.WithStack(&NativeError{Op: op, Status: status, Message: message})
}

// ContractViolation はネイティブライブラリが契約外の戻り値を返したことを表します。
// 回復可能なエラーとしては返されず、panic の値としてのみ使われます。
type ContractViolation struct {
	Op     string
	Status int
	Detail string
}

func (e *ContractViolation) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("golgbm: %s: native contract violated: %s", e.Op, e.Detail)
	}
	return fmt.Sprintf("golgbm: %s: unexpected return value '%d', expected 0 or -1", e.Op, e.Status)
}

// NewContractViolation は panic に渡す ContractViolation を作成します。
func NewContractViolation(op string, status int, detail string) *ContractViolation {
	return &ContractViolation{Op: op, Status: status, Detail: detail}
}

// ConversionError はネイティブが報告した件数を非負の int に変換できない場合のエラーです。
type ConversionError struct {
	Op       string
	Quantity string
	Value    int64
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("golgbm: %s: %s negative (got %d)", e.Op, e.Quantity, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ConversionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("quantity", e.Quantity).
		Int64("value", e.Value).
		Str("type", "ConversionError")
}

// NewConversionError は新しいConversionErrorを作成し、スタックトレースを付与します。
func NewConversionError(op, quantity string, value int64) error {
	return errors.WithStack(&ConversionError{Op: op, Quantity: quantity, Value: value})
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` などを呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("golgbm: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
// ネイティブ呼び出しの前に行うチェックはすべてこの型で失敗します。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int    // 0 for rows, 1 for columns/features
	Reason   string // 空でなければ Expected/Got の代わりに表示する
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("golgbm: %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("golgbm: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// NewDimensionErrorf は理由付きのDimensionErrorを作成します。
func NewDimensionErrorf(op string, axis int, format string, args ...interface{}) error {
	return errors.WithStack(&DimensionError{Op: op, Axis: axis, Reason: fmt.Sprintf(format, args...)})
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("golgbm: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("golgbm: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrClosed は解放済みのハンドルを使おうとした場合のエラーです。
	ErrClosed = New("handle already released")
)
