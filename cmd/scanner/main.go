// Command scanner resolves a QR login from a saved image, standing in for
// the mobile camera pipeline when testing a deployment by hand. It shares
// the gateway's Redis session store and reads the device vault from a local
// YAML file.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/jrsteele09/go-qr-login-relay/internal/config"
	"github.com/jrsteele09/go-qr-login-relay/resolver"
	"github.com/jrsteele09/go-qr-login-relay/sessions/reporedis"
	"github.com/jrsteele09/go-qr-login-relay/siteaccounts"
	"github.com/jrsteele09/go-qr-login-relay/vault"
)

// vaultFile is the scanner's stand-in for the device's credential vault,
// plus the site accounts to verify against:
//
//	credentials:
//	  - siteIdentity: example.com
//	    loginIdentifier: john
//	    secret: hunter2
//	siteAccounts:
//	  - siteIdentity: example.com
//	    loginIdentifier: john
//	    secret: hunter2
type vaultFile struct {
	Credentials []struct {
		SiteIdentity    string `yaml:"siteIdentity"`
		LoginIdentifier string `yaml:"loginIdentifier"`
		Secret          string `yaml:"secret"`
	} `yaml:"credentials"`
	SiteAccounts []struct {
		SiteIdentity    string `yaml:"siteIdentity"`
		LoginIdentifier string `yaml:"loginIdentifier"`
		Secret          string `yaml:"secret"`
	} `yaml:"siteAccounts"`
}

func main() {
	imagePath := flag.String("image", "", "path of the QR image to scan")
	uid := flag.String("uid", "", "ID of the signed-in user")
	vaultPath := flag.String("vault", "", "YAML file holding the user's credentials")
	redisURL := flag.String("redis", config.GetEnv("REDIS_URL", ""), "Redis URL of the shared session store")
	flag.Parse()

	if err := run(*imagePath, *uid, *vaultPath, *redisURL); err != nil {
		fmt.Fprintf(os.Stderr, "scanner: %v\n", err)
		os.Exit(1)
	}
}

func run(imagePath, uid, vaultPath, redisURL string) error {
	if imagePath == "" || uid == "" || vaultPath == "" {
		return fmt.Errorf("-image, -uid and -vault are required")
	}
	if redisURL == "" {
		return fmt.Errorf("-redis (or REDIS_URL) is required: the scanner must share the gateway's session store")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sessionRepo, err := reporedis.New(ctx, redisURL, 0)
	if err != nil {
		return fmt.Errorf("connect session store: %w", err)
	}
	defer sessionRepo.Close()

	vaultRepo, accountRepo, err := loadVault(ctx, vaultPath, uid)
	if err != nil {
		return err
	}

	frame, err := loadImage(imagePath)
	if err != nil {
		return err
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	r, err := resolver.New(resolver.Repos{
		Sessions:     sessionRepo,
		Vault:        vaultRepo,
		SiteAccounts: accountRepo,
	}, resolver.WithLogger(log))
	if err != nil {
		return err
	}

	result, decoded := r.ProcessFrame(ctx, uid, frame)
	if !decoded {
		fmt.Println("No QR code found in the image.")
		return nil
	}

	fmt.Println(result.Message)
	return nil
}

func loadVault(ctx context.Context, path, uid string) (vault.Repo, siteaccounts.Repo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read vault file: %w", err)
	}

	var file vaultFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("parse vault file: %w", err)
	}

	vaultRepo := vault.NewInMemoryRepo()
	for _, c := range file.Credentials {
		if err := vaultRepo.Upsert(ctx, &vault.StoredCredential{
			UserID:          uid,
			SiteIdentity:    c.SiteIdentity,
			LoginIdentifier: c.LoginIdentifier,
			Secret:          c.Secret,
		}); err != nil {
			return nil, nil, fmt.Errorf("load credential: %w", err)
		}
	}

	accountRepo := siteaccounts.NewInMemoryRepo()
	for _, a := range file.SiteAccounts {
		if err := accountRepo.Register(ctx, a.SiteIdentity, a.LoginIdentifier, a.Secret); err != nil {
			return nil, nil, fmt.Errorf("load site account: %w", err)
		}
	}

	return vaultRepo, accountRepo, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
