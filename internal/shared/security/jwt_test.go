package security

import (
	"bytes"
	"testing"
	"time"

	"github.com/go-think/openssl"
)

func TestAward_缺少JWT_SECRET应失败(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Award("u-1", 0); err == nil {
		t.Fatalf("期望 JWT_SECRET 为空时 Award 返回错误")
	}
}

func TestAwardParse_正常签发并解析(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-123")

	token, err := Award("u-42", time.Hour)
	if err != nil {
		t.Fatalf("Award err=%v", err)
	}
	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken err=%v", err)
	}
	if claims.UserID != "u-42" {
		t.Fatalf("期望 UserID==u-42, got=%v", claims.UserID)
	}
}

func TestParseToken_密钥不一致应失败(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-a")
	token, err := Award("u-1", time.Hour)
	if err != nil {
		t.Fatalf("Award err=%v", err)
	}
	t.Setenv("JWT_SECRET", "secret-b")
	if _, err := ParseToken(token); err == nil {
		t.Fatalf("期望签名校验失败")
	}
}

func TestBearerToken(t *testing.T) {
	if got, ok := BearerToken("Bearer abc"); !ok || got != "abc" {
		t.Fatalf("期望解析出 abc, got=%q ok=%v", got, ok)
	}
	if _, ok := BearerToken("Basic abc"); ok {
		t.Fatalf("期望非 Bearer 头解析失败")
	}
	if _, ok := BearerToken("Bearer "); ok {
		t.Fatalf("期望空 token 解析失败")
	}
}

func TestAesZip_往返(t *testing.T) {
	key := []byte("0123456789abcdef")
	plain := []byte(`{"name":"building_completed"}`)

	enc, err := AesCBCEncrypt(plain, key, key, openssl.PKCS7_PADDING)
	if err != nil {
		t.Fatalf("encrypt err=%v", err)
	}
	zipped, err := Zip(enc)
	if err != nil {
		t.Fatalf("zip err=%v", err)
	}
	unzipped, err := UnZip(zipped)
	if err != nil {
		t.Fatalf("unzip err=%v", err)
	}
	dec, err := AesCBCDecrypt(unzipped, key, key, openssl.PKCS7_PADDING)
	if err != nil {
		t.Fatalf("decrypt err=%v", err)
	}
	if !bytes.Equal(dec, plain) {
		t.Fatalf("往返结果不一致: %s", dec)
	}
}
