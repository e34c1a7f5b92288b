package main_test

import (
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestDockerfileExists(t *testing.T) {
	_, err := os.Stat("Dockerfile")
	if err != nil {
		t.Fatalf("Dockerfile should exist: %v", err)
	}
}

func TestDockerfileMultiStageBuild(t *testing.T) {
	data, err := os.ReadFile("Dockerfile")
	if err != nil {
		t.Fatalf("failed to read Dockerfile: %v", err)
	}
	content := string(data)

	// マルチステージビルドの確認: ビルドステージと実行ステージが存在すること
	if !strings.Contains(content, "FROM golang:") {
		t.Error("Dockerfile should contain a Go builder stage (FROM golang:)")
	}

	// 最終ステージは軽量イメージであること
	lines := strings.Split(content, "\n")
	var lastFrom string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "FROM ") {
			lastFrom = trimmed
		}
	}
	if !strings.Contains(lastFrom, "gcr.io/distroless") && !strings.Contains(lastFrom, "alpine") && !strings.Contains(lastFrom, "scratch") {
		t.Errorf("final stage should use a minimal base image (distroless/alpine/scratch), got: %s", lastFrom)
	}
}

// ビルドステージのGoはgo.modのgoディレクティブ以上であること。
// 古いイメージだとGOTOOLCHAIN=local環境でビルドを拒否される。
func TestDockerfileBuilderGoVersionCoversGoMod(t *testing.T) {
	modData, err := os.ReadFile("go.mod")
	if err != nil {
		t.Fatalf("failed to read go.mod: %v", err)
	}
	var required string
	for _, line := range strings.Split(string(modData), "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "go "); ok {
			required = v
			break
		}
	}
	if required == "" {
		t.Fatal("go.mod should contain a go directive")
	}

	dockerData, err := os.ReadFile("Dockerfile")
	if err != nil {
		t.Fatalf("failed to read Dockerfile: %v", err)
	}
	var builder string
	for _, line := range strings.Split(string(dockerData), "\n") {
		trimmed := strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(trimmed, "FROM golang:"); ok {
			builder = strings.Fields(v)[0]
			break
		}
	}
	if builder == "" {
		t.Fatal("Dockerfile should contain a FROM golang: builder stage")
	}

	if minorVersion(t, builder) < minorVersion(t, required) {
		t.Errorf("builder image golang:%s is older than go.mod directive go %s", builder, required)
	}
}

// minorVersion は"1.25"や"1.25.1"からマイナーバージョンを取り出す。
func minorVersion(t *testing.T, version string) int {
	t.Helper()
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		t.Fatalf("unexpected version format: %q", version)
	}
	var minor int
	if _, err := fmt.Sscanf(parts[1], "%d", &minor); err != nil {
		t.Fatalf("unexpected version format %q: %v", version, err)
	}
	return minor
}

func TestDockerfileBinaryName(t *testing.T) {
	data, err := os.ReadFile("Dockerfile")
	if err != nil {
		t.Fatalf("failed to read Dockerfile: %v", err)
	}
	content := string(data)

	// バイナリ名がichibaであること
	if !strings.Contains(content, "ichiba") {
		t.Error("Dockerfile should build a binary named 'ichiba'")
	}
}

func TestDockerfileEntrypoint(t *testing.T) {
	data, err := os.ReadFile("Dockerfile")
	if err != nil {
		t.Fatalf("failed to read Dockerfile: %v", err)
	}
	content := string(data)

	// ENTRYPOINTまたはCMDでichibaバイナリを起動すること
	if !strings.Contains(content, "ENTRYPOINT") && !strings.Contains(content, "CMD") {
		t.Error("Dockerfile should contain ENTRYPOINT or CMD")
	}
}

func TestDockerComposeExists(t *testing.T) {
	_, err := os.Stat("docker-compose.yml")
	if err != nil {
		t.Fatalf("docker-compose.yml should exist: %v", err)
	}
}

func TestDockerComposeServices(t *testing.T) {
	data, err := os.ReadFile("docker-compose.yml")
	if err != nil {
		t.Fatalf("failed to read docker-compose.yml: %v", err)
	}
	content := string(data)

	// 全サービスと依存ミドルウェアがコンテナとして定義されていること
	requiredServices := []string{
		"identity:", "catalog:", "cart:", "order:", "payment:",
		"notification:", "seller:", "agent:",
		"db:", "redis:", "nats:",
	}
	for _, svc := range requiredServices {
		if !strings.Contains(content, svc) {
			t.Errorf("docker-compose.yml should contain service %q", svc)
		}
	}
}

func TestDockerComposeBackingStores(t *testing.T) {
	data, err := os.ReadFile("docker-compose.yml")
	if err != nil {
		t.Fatalf("failed to read docker-compose.yml: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "postgres:") {
		t.Error("docker-compose.yml should use PostgreSQL image")
	}
	if !strings.Contains(content, "redis:") {
		t.Error("docker-compose.yml should use Redis image")
	}
	if !strings.Contains(content, "--jetstream") {
		t.Error("docker-compose.yml should start NATS with JetStream enabled")
	}
}

func TestDockerComposeMigrateRunsFirst(t *testing.T) {
	data, err := os.ReadFile("docker-compose.yml")
	if err != nil {
		t.Fatalf("failed to read docker-compose.yml: %v", err)
	}
	content := string(data)

	// migrateサービスがmigrateサブコマンドで起動すること
	if !strings.Contains(content, `["migrate"]`) {
		t.Error("docker-compose.yml should run the 'migrate' subcommand before services start")
	}
	if !strings.Contains(content, "service_completed_successfully") {
		t.Error("docker-compose.yml services should wait for migration completion")
	}
}

func TestDockerComposeNetworks(t *testing.T) {
	data, err := os.ReadFile("docker-compose.yml")
	if err != nil {
		t.Fatalf("failed to read docker-compose.yml: %v", err)
	}
	content := string(data)

	// ネットワーク設定が存在すること（バックエンドの隔離用）
	if !strings.Contains(content, "networks:") {
		t.Error("docker-compose.yml should define networks")
	}

	// DB・Redis・NATSは内部ネットワークのみに属すること
	if !strings.Contains(content, "internal: true") {
		t.Error("docker-compose.yml should define an internal network (internal: true) for backing stores")
	}
}
