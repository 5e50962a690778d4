package api

import (
	"fmt"
	"net/http"

	"github.com/banachtech/option-pricer/crr"
	"github.com/banachtech/option-pricer/errs"
	"github.com/banachtech/option-pricer/mainfuncs"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// maxLatticeDepth bounds the trees returned over HTTP.
const maxLatticeDepth = 1000

func (server *Server) price(c *gin.Context) {
	var req mainfuncs.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse(err))
		return
	}
	req.ApplyDefaults(server.config.Engine)

	report, err := mainfuncs.Compare(req)
	if err != nil {
		log.WithError(err).WithField("request", req).Error("api: pricing failed")
		c.AbortWithStatusJSON(statusFor(err), errorResponse(err))
		return
	}

	log.WithFields(log.Fields{
		"contract": report.Contract,
		"paths":    req.Paths,
		"depth":    req.Depth,
	}).Info("api: priced")
	c.JSON(http.StatusOK, report)
}

type latticeRequest struct {
	mainfuncs.Request
	// U, D and R give the tree directly; when U is zero the tree is built
	// from rate and vol instead.
	U float64 `json:"u" binding:"min=0"`
	D float64 `json:"d" binding:"min=0"`
	R float64 `json:"r" binding:"min=0"`
}

type latticeResponse struct {
	Contract string      `json:"contract"`
	Price    float64     `json:"price"`
	U        float64     `json:"u"`
	D        float64     `json:"d"`
	R        float64     `json:"r"`
	Q        float64     `json:"q"`
	Option   [][]float64 `json:"option"`
	Exercise [][]bool    `json:"exercise"`
	Boundary []int       `json:"boundary"`
}

func (server *Server) lattice(c *gin.Context) {
	var req latticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse(err))
		return
	}
	req.ApplyDefaults(server.config.Engine)

	resp, err := buildLattice(req)
	if err != nil {
		c.AbortWithStatusJSON(statusFor(err), errorResponse(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func buildLattice(req latticeRequest) (*latticeResponse, error) {
	if req.Depth > maxLatticeDepth {
		return nil, fmt.Errorf("depth %d above %d: %w", req.Depth, maxLatticeDepth, errs.ErrInvalidArgument)
	}
	opt, err := req.Contract()
	if err != nil {
		return nil, err
	}

	var tree *crr.Pricer
	if req.U > 0 {
		tree, err = crr.NewFromFactors(opt, req.Depth, req.Spot, req.U, req.D, req.R)
	} else {
		tree, err = crr.NewFromMarket(opt, req.Depth, req.Spot, req.Rate, req.Vol)
	}
	if err != nil {
		return nil, err
	}
	if err := tree.Compute(); err != nil {
		return nil, err
	}

	resp := &latticeResponse{Contract: opt.String(), Q: tree.RiskNeutralProb()}
	resp.U, resp.D, resp.R = tree.Factors()
	if resp.Price, err = tree.Value(); err != nil {
		return nil, err
	}
	if resp.Option, err = tree.OptionLevels(); err != nil {
		return nil, err
	}
	if resp.Exercise, err = tree.ExerciseLevels(); err != nil {
		return nil, err
	}
	if resp.Boundary, err = tree.ExerciseBoundary(); err != nil {
		return nil, err
	}
	return resp, nil
}
