// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// cockroachdb/errors を土台にし、スキーマ不一致や特徴量解決の失敗などを型付きエラーとして表現します。
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("koala-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため pkg/log 側から注入される）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されていれば構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// EmptyValidationWarning は validation_fraction が正でも検証用の行が残らなかった場合の警告です。
type EmptyValidationWarning struct {
	Fraction float64
	Samples  int
}

func (w *EmptyValidationWarning) Error() string {
	return fmt.Sprintf("validation_fraction=%g leaves no validation rows out of %d samples; validation skipped", w.Fraction, w.Samples)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *EmptyValidationWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("fraction", w.Fraction).
		Int("samples", w.Samples).
		Str("type", "EmptyValidationWarning")
}

// NewEmptyValidationWarning は新しいEmptyValidationWarningを作成します。
func NewEmptyValidationWarning(fraction float64, samples int) *EmptyValidationWarning {
	return &EmptyValidationWarning{Fraction: fraction, Samples: samples}
}

// UnseenCategoryWarning は変換時に学習時に存在しなかったカテゴリが現れた場合の警告です。
type UnseenCategoryWarning struct {
	Column string
	Count  int
}

func (w *UnseenCategoryWarning) Error() string {
	return fmt.Sprintf("column '%s': %d value(s) unseen during fit were encoded as -1", w.Column, w.Count)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *UnseenCategoryWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("column", w.Column).
		Int("count", w.Count).
		Str("type", "UnseenCategoryWarning")
}

// NewUnseenCategoryWarning は新しいUnseenCategoryWarningを作成します。
func NewUnseenCategoryWarning(column string, count int) *UnseenCategoryWarning {
	return &UnseenCategoryWarning{Column: column, Count: count}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("koala: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
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
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("koala: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
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

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("koala: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
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

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("koala: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError は学習エンジンなど機械学習モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("koala: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("koala: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// SchemaError は変換対象のテーブルが学習時の特徴量を含まない場合のエラーです。
// 呼び出し側は再学習するか、互換性のあるテーブルを渡す必要があります。
type SchemaError struct {
	Op      string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("koala: %s: table is not compatible with the fitted scheme; missing feature(s): %s",
		e.Op, strings.Join(e.Missing, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SchemaError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Strs("missing", e.Missing).
		Str("type", "SchemaError")
}

// NewSchemaError は新しいSchemaErrorを作成し、スタックトレースを付与します。
func NewSchemaError(op string, missing []string) error {
	return errors.WithStack(&SchemaError{Op: op, Missing: missing})
}

// UnresolvedFeatureError はカテゴリ特徴量名が保持された特徴量リストの中に見つからない場合のエラーです。
type UnresolvedFeatureError struct {
	Op       string
	Feature  string
	Features []string
}

func (e *UnresolvedFeatureError) Error() string {
	return fmt.Sprintf("koala: %s: categorical feature '%s' is not among the retained features [%s]",
		e.Op, e.Feature, strings.Join(e.Features, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *UnresolvedFeatureError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("feature", e.Feature).
		Strs("features", e.Features).
		Str("type", "UnresolvedFeatureError")
}

// NewUnresolvedFeatureError は新しいUnresolvedFeatureErrorを作成し、スタックトレースを付与します。
func NewUnresolvedFeatureError(op, feature string, features []string) error {
	return errors.WithStack(&UnresolvedFeatureError{Op: op, Feature: feature, Features: features})
}

// UnseenValueError は未知の値を -1 に写像しない設定のエンコーダに未知の値が渡された場合のエラーです。
type UnseenValueError struct {
	Value interface{}
}

func (e *UnseenValueError) Error() string {
	return fmt.Sprintf("koala: value %v was not seen during fit", e.Value)
}

// NewUnseenValueError は新しいUnseenValueErrorを作成し、スタックトレースを付与します。
func NewUnseenValueError(value interface{}) error {
	return errors.WithStack(&UnseenValueError{Value: value})
}

// DataConversionError は列を要求された型に変換できない場合のエラーです。
type DataConversionError struct {
	Column   string
	FromType string
	ToType   string
	// Hint は利用者向けの対処方法 (空なら付けない)
	Hint string
}

func (e *DataConversionError) Error() string {
	msg := fmt.Sprintf("koala: column '%s' of type %s cannot be converted to %s", e.Column, e.FromType, e.ToType)
	if e.Hint != "" {
		msg += "; " + e.Hint
	}
	return msg
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DataConversionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Str("from_type", e.FromType).
		Str("to_type", e.ToType).
		Str("type", "DataConversionError")
}

// NewDataConversionError は新しいDataConversionErrorを作成し、スタックトレースを付与します。
func NewDataConversionError(column, from, to string) error {
	return errors.WithStack(&DataConversionError{Column: column, FromType: from, ToType: to})
}

// NewUndeclaredCategoricalError はカテゴリ指定されていない文字列列を数値に変換しようとした場合のエラーです。
func NewUndeclaredCategoricalError(column, from string) error {
	return errors.WithStack(&DataConversionError{
		Column:   column,
		FromType: from,
		ToType:   "float64",
		Hint:     "declare it categorical",
	})
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
	// ErrNotImplemented は機能が未実装の場合のエラーです。
	ErrNotImplemented = New("not implemented")

	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")
)
