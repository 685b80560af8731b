//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Command bedoza-ecdsa is a demonstration driver for the two-party
// threshold-ECDSA core in crypto/tecdsa: keygen, preprocess, sign, and
// verify subcommands that exercise the library end to end within a
// single process per invocation, persisting the key share and a
// single-use preprocessing between invocations with encoding/json, in
// the style of the teacher's WriteSaveData/ReadSaveData. There is no
// transport here: each subcommand rebuilds its own in-process ABB and
// imports whatever state the previous subcommand left on disk.
package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"

	"github.com/markkurossi/bedoza/crypto/bedoza"
	"github.com/markkurossi/bedoza/crypto/tecdsa"
	"go.uber.org/zap"
)

func main() {
	verbose := flag.Bool("v", false, "verbose logging")
	retries := flag.Int("retries", 8, "max preprocessing/sign retries on degenerate triples")
	keyFile := flag.String("keyfile", "bedoza-key.json", "key share file")
	preFile := flag.String("prefile", "bedoza-preprocessing.json", "preprocessing file")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	logger, sugar, err := buildLogger(*verbose)
	if err != nil {
		log.Fatalf("bedoza-ecdsa: build logger: %s", err)
	}
	defer logger.Sync()

	switch args[0] {
	case "keygen":
		err = runKeygen(sugar, *keyFile)
	case "preprocess":
		err = runPreprocess(sugar, *retries, *keyFile, *preFile)
	case "sign":
		if len(args) < 2 {
			log.Fatal("bedoza-ecdsa: sign requires a message argument")
		}
		err = runSign(sugar, *retries, *keyFile, *preFile, args[1])
	case "verify":
		if len(args) < 3 {
			log.Fatal("bedoza-ecdsa: verify requires a message and a sig-hex argument")
		}
		err = runVerify(sugar, *keyFile, args[1], args[2])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("bedoza-ecdsa: %s", err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-v] [-retries N] [-keyfile F] [-prefile F] keygen|preprocess|sign MESSAGE|verify MESSAGE SIG-HEX\n", os.Args[0])
}

func buildLogger(verbose bool) (*zap.Logger, *zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, nil, err
	}
	return logger, logger.Sugar(), nil
}

func newSigner(log *zap.SugaredLogger) (*tecdsa.ThresholdECDSA, error) {
	params := bedoza.NewP256FieldParams()
	return tecdsa.NewThresholdECDSA(params, log)
}

func runKeygen(log *zap.SugaredLogger, keyFile string) error {
	signer, err := newSigner(log)
	if err != nil {
		return fmt.Errorf("set up threshold ECDSA: %w", err)
	}
	key, err := signer.GenKeypair()
	if err != nil {
		return fmt.Errorf("generate keypair: %w", err)
	}
	rec, err := signer.MarshalKeyShare(key)
	if err != nil {
		return fmt.Errorf("marshal key share: %w", err)
	}
	if err := writeJSON(keyFile, rec); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	fmt.Printf("public key: (%s, %s)\n", key.PublicKey().X().Text(16), key.PublicKey().Y().Text(16))
	fmt.Printf("key share written to %s\n", keyFile)
	return nil
}

func runPreprocess(log *zap.SugaredLogger, retries int, keyFile, preFile string) error {
	signer, err := newSigner(log)
	if err != nil {
		return fmt.Errorf("set up threshold ECDSA: %w", err)
	}

	key, err := loadKeyShare(signer, keyFile)
	if err != nil {
		return err
	}

	var pre *tecdsa.Preprocessing
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		pre, lastErr = signer.Preprocess(key)
		if lastErr == nil {
			break
		}
		if !errors.Is(lastErr, bedoza.ErrDegenerateTriple) {
			return fmt.Errorf("preprocess: %w", lastErr)
		}
	}
	if pre == nil {
		return fmt.Errorf("preprocess: exhausted %d attempts: %w", retries, lastErr)
	}

	rec, err := signer.MarshalPreprocessing(pre)
	if err != nil {
		return fmt.Errorf("marshal preprocessing: %w", err)
	}
	if err := writeJSON(preFile, rec); err != nil {
		return fmt.Errorf("write preprocessing file: %w", err)
	}
	fmt.Printf("preprocessing written to %s (single use: one sign call consumes it)\n", preFile)
	return nil
}

func runSign(log *zap.SugaredLogger, retries int, keyFile, preFile, message string) error {
	signer, err := newSigner(log)
	if err != nil {
		return fmt.Errorf("set up threshold ECDSA: %w", err)
	}

	key, err := loadKeyShare(signer, keyFile)
	if err != nil {
		return err
	}

	var sig *tecdsa.Signature
	if _, statErr := os.Stat(preFile); statErr == nil {
		var rec tecdsa.PreprocessingRecord
		if err := readJSON(preFile, &rec); err != nil {
			return fmt.Errorf("read preprocessing file: %w", err)
		}
		pre, err := signer.UnmarshalPreprocessing(rec)
		if err != nil {
			return fmt.Errorf("unmarshal preprocessing: %w", err)
		}
		sig, err = signer.Sign(key, pre, []byte(message))
		if err != nil {
			return fmt.Errorf("sign: %w", err)
		}
		if err := os.Remove(preFile); err != nil {
			log.Warnw("remove consumed preprocessing file", "file", preFile, "error", err)
		}
	} else {
		sig, err = signer.SignWithRetry(key, []byte(message), retries)
		if err != nil {
			return fmt.Errorf("sign: %w", err)
		}
	}

	fmt.Printf("signature: %s\n", encodeSignature(sig))
	return nil
}

func runVerify(log *zap.SugaredLogger, keyFile, message, sigHex string) error {
	signer, err := newSigner(log)
	if err != nil {
		return fmt.Errorf("set up threshold ECDSA: %w", err)
	}

	key, err := loadKeyShare(signer, keyFile)
	if err != nil {
		return err
	}

	sig, err := decodeSignature(sigHex)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	ok := signer.Verify(key.PublicKey(), []byte(message), sig)
	fmt.Printf("verified: %v\n", ok)
	if !ok {
		return fmt.Errorf("signature does not verify")
	}
	return nil
}

func loadKeyShare(signer *tecdsa.ThresholdECDSA, keyFile string) (*tecdsa.KeyShare, error) {
	var rec tecdsa.KeyShareRecord
	if err := readJSON(keyFile, &rec); err != nil {
		return nil, fmt.Errorf("read key file %s (run keygen first): %w", keyFile, err)
	}
	key, err := signer.UnmarshalKeyShare(rec)
	if err != nil {
		return nil, fmt.Errorf("unmarshal key share: %w", err)
	}
	return key, nil
}

func encodeSignature(sig *tecdsa.Signature) string {
	return hex.EncodeToString(sig.R.Bytes()) + ":" + hex.EncodeToString(sig.S.Bytes())
}

func decodeSignature(s string) (*tecdsa.Signature, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("signature must be in r-hex:s-hex form")
	}
	rBytes, err := hex.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("decode r: %w", err)
	}
	sBytes, err := hex.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode s: %w", err)
	}
	return &tecdsa.Signature{
		R: new(big.Int).SetBytes(rBytes),
		S: new(big.Int).SetBytes(sBytes),
	}, nil
}

func writeJSON(file string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, data, 0o600)
}

func readJSON(file string, v interface{}) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
